package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sinovhub/sinovbot/internal/db"
	"github.com/sinovhub/sinovbot/internal/store"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return store.NewSQLStore(dbh, "sqlite")
}

func seedUser(t *testing.T, s *store.SQLStore, id int64, role store.Role) store.User {
	t.Helper()
	u := store.User{
		TelegramID:  id,
		FirstName:   "Ism",
		LastName:    "Familiya",
		PhoneNumber: "+998901234567",
		Role:        role,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedTest(t *testing.T, s *store.SQLStore, id string, createdBy int64, deadline time.Time) store.Test {
	t.Helper()
	tt := store.Test{
		ID:        id,
		Title:     "Matematika 1",
		Answers:   []string{"1-a", "2-b", "3-c"},
		FileIDs:   []string{"file-1"},
		Deadline:  deadline,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.CreateTest(context.Background(), tt); err != nil {
		t.Fatalf("create test: %v", err)
	}
	return tt
}

func TestUserRoundTripAndDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, 100, store.RoleStudent)
	got, err := s.GetUser(ctx, u.TelegramID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FirstName != u.FirstName || got.Role != store.RoleStudent {
		t.Fatalf("got %+v", got)
	}

	if err := s.CreateUser(ctx, u); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second insert: want ErrDuplicate, got %v", err)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing user: want ErrNotFound, got %v", err)
	}
}

func TestUpdateTest_TouchesOnlyChosenField(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	before := seedTest(t, s, "t1", 1, time.Now().Add(24*time.Hour))

	title := "Fizika 2"
	if err := s.UpdateTest(ctx, "t1", store.TestUpdate{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, err := s.GetTest(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Title != "Fizika 2" {
		t.Fatalf("title not updated: %q", after.Title)
	}
	if len(after.Answers) != len(before.Answers) || after.Answers[0] != before.Answers[0] {
		t.Fatalf("answers changed: %v", after.Answers)
	}
	if len(after.FileIDs) != 1 || after.FileIDs[0] != "file-1" {
		t.Fatalf("file ids changed: %v", after.FileIDs)
	}
	if !after.Deadline.Equal(before.Deadline.Truncate(time.Second)) {
		t.Fatalf("deadline changed: %v vs %v", after.Deadline, before.Deadline)
	}

	if err := s.UpdateTest(ctx, "missing", store.TestUpdate{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResultUniquePerUserAndTest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 100, store.RoleStudent)
	seedTest(t, s, "t1", 1, time.Now().Add(time.Hour))

	r := store.TestResult{
		UserID:      100,
		TestID:      "t1",
		Answers:     []string{"1-a", "2-b", "3-d"},
		Score:       66.7,
		SubmittedAt: time.Now(),
	}
	if err := s.CreateResult(ctx, r); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// The compound unique index rejects a second row even if the flow's
	// check-then-insert race is lost.
	if err := s.CreateResult(ctx, r); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second insert: want ErrDuplicate, got %v", err)
	}

	got, err := s.GetResult(ctx, 100, "t1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.Score != 66.7 || len(got.Answers) != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestDeleteTestCascadesResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 100, store.RoleStudent)
	seedTest(t, s, "t1", 1, time.Now().Add(time.Hour))
	seedTest(t, s, "t2", 1, time.Now().Add(time.Hour))

	for _, testID := range []string{"t1", "t2"} {
		err := s.CreateResult(ctx, store.TestResult{
			UserID: 100, TestID: testID, Answers: []string{"1-a"}, Score: 100, SubmittedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}

	if err := s.DeleteTest(ctx, "t1"); err != nil {
		t.Fatalf("delete test: %v", err)
	}
	if _, err := s.GetResult(ctx, 100, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("result for t1 should be gone, got %v", err)
	}
	if _, err := s.GetResult(ctx, 100, "t2"); err != nil {
		t.Fatalf("result for t2 should survive, got %v", err)
	}
}

func TestDeleteUserCascadesResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 100, store.RoleStudent)
	seedUser(t, s, 200, store.RoleStudent)
	seedTest(t, s, "t1", 1, time.Now().Add(time.Hour))

	for _, userID := range []int64{100, 200} {
		err := s.CreateResult(ctx, store.TestResult{
			UserID: userID, TestID: "t1", Answers: []string{"1-a"}, Score: 100, SubmittedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}

	if err := s.DeleteUser(ctx, 100); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := s.GetUser(ctx, 100); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("user should be gone, got %v", err)
	}
	if _, err := s.GetResult(ctx, 100, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("their result should be gone, got %v", err)
	}
	if _, err := s.GetResult(ctx, 200, "t1"); err != nil {
		t.Fatalf("other result should survive, got %v", err)
	}
}

func TestListOpenTests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	seedTest(t, s, "past", 1, now.Add(-time.Hour))
	seedTest(t, s, "future", 1, now.Add(time.Hour))

	open, err := s.ListOpenTests(ctx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].ID != "future" {
		t.Fatalf("got %+v", open)
	}
}

func TestListResultsByTest_JoinsAndSorts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTest(t, s, "t1", 1, time.Now().Add(time.Hour))

	base := time.Now().Add(-time.Hour)
	scores := []float64{50, 90, 70}
	for i, score := range scores {
		id := int64(100 + i)
		seedUser(t, s, id, store.RoleStudent)
		err := s.CreateResult(ctx, store.TestResult{
			UserID: id, TestID: "t1", Answers: []string{"1-a"},
			Score: score, SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}

	byScore, err := s.ListResultsByTest(ctx, "t1", store.OrderByScoreDesc)
	if err != nil {
		t.Fatalf("list by score: %v", err)
	}
	if len(byScore) != 3 || byScore[0].Score != 90 || byScore[2].Score != 50 {
		t.Fatalf("score order wrong: %+v", byScore)
	}
	if byScore[0].User.FirstName == "" {
		t.Fatalf("user not joined: %+v", byScore[0])
	}

	bySubmitted, err := s.ListResultsByTest(ctx, "t1", store.OrderBySubmittedDesc)
	if err != nil {
		t.Fatalf("list by submitted: %v", err)
	}
	if bySubmitted[0].UserID != 102 {
		t.Fatalf("latest submission should be first: %+v", bySubmitted[0])
	}
}

func TestListResultsByUser_JoinsTests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, 100, store.RoleStudent)
	seedTest(t, s, "t1", 1, time.Now().Add(time.Hour))

	err := s.CreateResult(ctx, store.TestResult{
		UserID: 100, TestID: "t1", Answers: []string{"1-a"}, Score: 100, SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}

	results, err := s.ListResultsByUser(ctx, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].TestTitle != "Matematika 1" {
		t.Fatalf("got %+v", results)
	}
}

func TestListStudents_ExcludesTeachers(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, store.RoleTeacher)
	seedUser(t, s, 100, store.RoleStudent)
	seedUser(t, s, 200, store.RoleStudent)

	students, err := s.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("want 2 students, got %+v", students)
	}
	for _, st := range students {
		if st.Role != store.RoleStudent {
			t.Fatalf("teacher leaked into listing: %+v", st)
		}
	}
}
