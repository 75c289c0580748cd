// Package report renders a test's results as a plain-text table for
// download by the teacher.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sinovhub/sinovbot/internal/scoring"
	"github.com/sinovhub/sinovbot/internal/store"
)

const timeLayout = "02.01.2006 15:04"

// Build renders the report: header block, ranked result rows, statistics.
// Rows keep the order they arrive in; pass a score-sorted listing for a
// ranked table. Correct counts are recomputed from the stored submissions.
func Build(test store.Test, results []store.ResultWithUser) []byte {
	var sb strings.Builder

	line := strings.Repeat("=", 50)
	sb.WriteString(line + "\n")
	sb.WriteString(strings.Repeat(" ", 20) + test.Title + "\n")
	sb.WriteString(line + "\n\n")

	sb.WriteString("TEST HAQIDA MA'LUMOT\n")
	sb.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&sb, "Yaratilgan vaqt: %s\n", test.CreatedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Savollar soni: %d\n", len(test.Answers))
	fmt.Fprintf(&sb, "Fayllar soni: %d\n", len(test.FileIDs))
	fmt.Fprintf(&sb, "Jami qatnashchilar: %d\n\n", len(results))

	sb.WriteString("NATIJALAR\n")
	sb.WriteString(strings.Repeat("-", 30) + "\n")
	sb.WriteString("№  | F.I.SH               | Ball   | To'g'ri/Noto'g'ri | Daraja\n")
	sb.WriteString(strings.Repeat("-", 70) + "\n")

	tierCounts := map[scoring.Tier]int{}
	var sum, max, min float64
	for i, r := range results {
		_, correct := scoring.Score(test.Answers, r.Answers)
		wrong := len(test.Answers) - correct
		tier := scoring.TierFor(r.Score)
		tierCounts[tier]++

		name := r.User.LastName + " " + r.User.FirstName
		fmt.Fprintf(&sb, "%2d | %-20s | %-6s | %-17s | %s\n",
			i+1, name, fmt.Sprintf("%.1f%%", r.Score), fmt.Sprintf("%d/%d", correct, wrong),
			scoring.TierLabel(tier))

		sum += r.Score
		if i == 0 || r.Score > max {
			max = r.Score
		}
		if i == 0 || r.Score < min {
			min = r.Score
		}
	}
	sb.WriteString("\n")

	sb.WriteString("STATISTIKA\n")
	sb.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&sb, "O'rtacha ball: %.1f%%\n", sum/float64(len(results)))
	fmt.Fprintf(&sb, "Eng yuqori ball: %.1f%%\n", max)
	fmt.Fprintf(&sb, "Eng past ball: %.1f%%\n", min)
	fmt.Fprintf(&sb, "A'lo baholar: %d\n", tierCounts[scoring.TierExcellent])
	fmt.Fprintf(&sb, "Yaxshi baholar: %d\n", tierCounts[scoring.TierGood])
	fmt.Fprintf(&sb, "O'rtacha baholar: %d\n", tierCounts[scoring.TierAverage])
	fmt.Fprintf(&sb, "Qoniqarsiz baholar: %d\n", tierCounts[scoring.TierLow])

	return []byte(sb.String())
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// Filename derives a safe report name from the test title plus a
// generation timestamp.
func Filename(title string, now time.Time) string {
	safe := unsafeChars.ReplaceAllString(title, "_")
	if len(safe) > 30 {
		safe = safe[:30]
	}
	return safe + "_" + now.Format("02_01_2006_15_04") + ".txt"
}
