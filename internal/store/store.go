package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert hits a uniqueness constraint
	// (user already registered, result already submitted).
	ErrDuplicate = errors.New("already exists")
)

// ResultOrder selects the sort for joined result listings.
type ResultOrder string

const (
	OrderBySubmittedDesc ResultOrder = "submitted_desc"
	OrderByScoreDesc     ResultOrder = "score_desc"
)

type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, telegramID int64) (User, error)
	ListStudents(ctx context.Context) ([]User, error)
	// DeleteUser removes the user and cascades that user's results.
	DeleteUser(ctx context.Context, telegramID int64) error

	CreateTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error)
	// UpdateTest applies only the fields set in upd and bumps updated_at.
	UpdateTest(ctx context.Context, id string, upd TestUpdate) error
	// DeleteTest removes the test and cascades its results.
	DeleteTest(ctx context.Context, id string) error
	ListTestsByCreator(ctx context.Context, createdBy int64) ([]Test, error)
	// ListOpenTests returns tests whose deadline is after now, oldest first.
	ListOpenTests(ctx context.Context, now time.Time) ([]Test, error)

	CreateResult(ctx context.Context, r TestResult) error
	GetResult(ctx context.Context, userID int64, testID string) (TestResult, error)
	ListResultsByTest(ctx context.Context, testID string, order ResultOrder) ([]ResultWithUser, error)
	ListResultsByUser(ctx context.Context, userID int64) ([]ResultWithTest, error)
}
