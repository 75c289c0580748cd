package store

import "time"

type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// User is keyed by the Telegram user ID. Role is fixed at registration from
// the static teacher list and never changes afterwards.
type User struct {
	TelegramID  int64
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Test holds the answer key as ordered "<n>-<letter>" tokens and at least one
// attached file reference.
type Test struct {
	ID        string
	Title     string
	Answers   []string
	FileIDs   []string
	Deadline  time.Time
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TestUpdate is a partial update: only non-nil fields are applied.
// UpdatedAt is always bumped by the store.
type TestUpdate struct {
	Title    *string
	Answers  []string
	FileIDs  []string
	Deadline *time.Time
}

// TestResult is immutable once written; there is at most one per
// (user, test) pair.
type TestResult struct {
	UserID      int64
	TestID      string
	Answers     []string
	Score       float64
	SubmittedAt time.Time
}

// ResultWithUser is a result row joined with the submitting student's
// profile, for teacher-facing listings and the export.
type ResultWithUser struct {
	TestResult
	User User
}

// ResultWithTest is a result row joined with its test, for the student's
// own history.
type ResultWithTest struct {
	TestResult
	TestTitle    string
	TestDeadline time.Time
}
