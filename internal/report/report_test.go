package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sinovhub/sinovbot/internal/report"
	"github.com/sinovhub/sinovbot/internal/store"
)

func sampleTest() store.Test {
	return store.Test{
		ID:        "t1",
		Title:     "Algebra 7-sinf",
		Answers:   []string{"1-a", "2-b", "3-c", "4-d"},
		FileIDs:   []string{"file-1"},
		Deadline:  time.Date(2025, 3, 20, 18, 0, 0, 0, time.Local),
		CreatedAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.Local),
	}
}

func result(first, last string, score float64, answers ...string) store.ResultWithUser {
	return store.ResultWithUser{
		TestResult: store.TestResult{
			Answers:     answers,
			Score:       score,
			SubmittedAt: time.Date(2025, 3, 11, 10, 0, 0, 0, time.Local),
		},
		User: store.User{FirstName: first, LastName: last},
	}
}

func TestBuildContainsHeaderAndInfo(t *testing.T) {
	content := string(report.Build(sampleTest(), []store.ResultWithUser{
		result("Ali", "Valiyev", 100, "1-a", "2-b", "3-c", "4-d"),
	}))

	assert.Contains(t, content, "Algebra 7-sinf")
	assert.Contains(t, content, "Yaratilgan vaqt: 10.03.2025 09:30")
	assert.Contains(t, content, "Savollar soni: 4")
	assert.Contains(t, content, "Fayllar soni: 1")
	assert.Contains(t, content, "Jami qatnashchilar: 1")
}

func TestBuildRowsAndStats(t *testing.T) {
	results := []store.ResultWithUser{
		result("Ali", "Valiyev", 100, "1-a", "2-b", "3-c", "4-d"),
		result("Vali", "Aliyev", 75, "1-a", "2-b", "3-c", "4-a"),
		result("Olim", "Karimov", 25, "1-a", "2-d", "3-d", "4-a"),
	}
	content := string(report.Build(sampleTest(), results))

	// Correct counts are recomputed from the stored submissions.
	assert.Contains(t, content, "Valiyev Ali")
	assert.Contains(t, content, "4/0")
	assert.Contains(t, content, "3/1")
	assert.Contains(t, content, "1/3")

	assert.Contains(t, content, "O'rtacha ball: 66.7%")
	assert.Contains(t, content, "Eng yuqori ball: 100.0%")
	assert.Contains(t, content, "Eng past ball: 25.0%")
	assert.Contains(t, content, "A'lo baholar: 1")
	assert.Contains(t, content, "Yaxshi baholar: 1")
	assert.Contains(t, content, "O'rtacha baholar: 0")
	assert.Contains(t, content, "Qoniqarsiz baholar: 1")
}

func TestBuildPreservesGivenOrder(t *testing.T) {
	results := []store.ResultWithUser{
		result("Birinchi", "X", 90, "1-a", "2-b", "3-c", "4-d"),
		result("Ikkinchi", "Y", 95, "1-a", "2-b", "3-c", "4-d"),
	}
	content := string(report.Build(sampleTest(), results))
	assert.Less(t, strings.Index(content, "X Birinchi"), strings.Index(content, "Y Ikkinchi"))
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 5, 0, 0, time.Local)

	assert.Equal(t, "Algebra_7-sinf_15_03_2025_14_05.txt", report.Filename("Algebra 7-sinf", now))

	long := report.Filename(strings.Repeat("a", 60), now)
	assert.Equal(t, strings.Repeat("a", 30)+"_15_03_2025_14_05.txt", long)

	cyrillic := report.Filename("Тест №1", now)
	assert.NotContains(t, cyrillic, "Т")
	assert.True(t, strings.HasSuffix(cyrillic, ".txt"))
}
