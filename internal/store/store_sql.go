package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (telegram_id,first_name,last_name,phone_number,role,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.TelegramID, u.FirstName, u.LastName, u.PhoneNumber, string(u.Role), u.CreatedAt.Unix(), u.UpdatedAt.Unix())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLStore) GetUser(ctx context.Context, telegramID int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT telegram_id,first_name,last_name,phone_number,role,created_at,updated_at
		FROM users WHERE telegram_id=$1`, telegramID)
	return scanUser(row)
}

func (s *SQLStore) ListStudents(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT telegram_id,first_name,last_name,phone_number,role,created_at,updated_at
		FROM users WHERE role=$1 ORDER BY created_at`, string(RoleStudent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteUser(ctx context.Context, telegramID int64) error {
	// Results are removed explicitly as well as by the FK cascade, so the
	// sqlite path works even with foreign_keys off.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM test_results WHERE user_id=$1`, telegramID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE telegram_id=$1`, telegramID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateTest(ctx context.Context, t Test) error {
	aj, err := json.Marshal(t.Answers)
	if err != nil {
		return err
	}
	fj, err := json.Marshal(t.FileIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,answers_json,file_ids_json,deadline,created_by,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.Title, string(aj), string(fj), t.Deadline.Unix(), t.CreatedBy, t.CreatedAt.Unix(), t.UpdatedAt.Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,answers_json,file_ids_json,deadline,created_by,created_at,updated_at
		FROM tests WHERE id=$1`, id)
	return scanTest(row)
}

func (s *SQLStore) UpdateTest(ctx context.Context, id string, upd TestUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+"="+placeholder(len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Answers != nil {
		aj, err := json.Marshal(upd.Answers)
		if err != nil {
			return err
		}
		add("answers_json", string(aj))
	}
	if upd.FileIDs != nil {
		fj, err := json.Marshal(upd.FileIDs)
		if err != nil {
			return err
		}
		add("file_ids_json", string(fj))
	}
	if upd.Deadline != nil {
		add("deadline", upd.Deadline.Unix())
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().Unix())
	args = append(args, id)
	q := `UPDATE tests SET ` + strings.Join(sets, ",") + ` WHERE id=` + placeholder(len(args))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteTest(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM test_results WHERE test_id=$1`, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListTestsByCreator(ctx context.Context, createdBy int64) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,answers_json,file_ids_json,deadline,created_by,created_at,updated_at
		FROM tests WHERE created_by=$1 ORDER BY created_at`, createdBy)
	if err != nil {
		return nil, err
	}
	return collectTests(rows)
}

func (s *SQLStore) ListOpenTests(ctx context.Context, now time.Time) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,answers_json,file_ids_json,deadline,created_by,created_at,updated_at
		FROM tests WHERE deadline > $1 ORDER BY created_at`, now.Unix())
	if err != nil {
		return nil, err
	}
	return collectTests(rows)
}

func (s *SQLStore) CreateResult(ctx context.Context, r TestResult) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO test_results (user_id,test_id,answers_json,score,submitted_at)
		VALUES ($1,$2,$3,$4,$5)`,
		r.UserID, r.TestID, string(aj), r.Score, r.SubmittedAt.Unix())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLStore) GetResult(ctx context.Context, userID int64, testID string) (TestResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id,test_id,answers_json,score,submitted_at
		FROM test_results WHERE user_id=$1 AND test_id=$2`, userID, testID)
	var r TestResult
	var aj string
	var sub int64
	if err := row.Scan(&r.UserID, &r.TestID, &aj, &r.Score, &sub); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestResult{}, ErrNotFound
		}
		return TestResult{}, err
	}
	if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
		return TestResult{}, err
	}
	r.SubmittedAt = time.Unix(sub, 0)
	return r, nil
}

func (s *SQLStore) ListResultsByTest(ctx context.Context, testID string, order ResultOrder) ([]ResultWithUser, error) {
	orderBy := "r.submitted_at DESC"
	if order == OrderByScoreDesc {
		orderBy = "r.score DESC"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT r.user_id,r.test_id,r.answers_json,r.score,r.submitted_at,
			u.telegram_id,u.first_name,u.last_name,u.phone_number,u.role,u.created_at,u.updated_at
		FROM test_results r JOIN users u ON u.telegram_id = r.user_id
		WHERE r.test_id=$1 ORDER BY `+orderBy, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ResultWithUser
	for rows.Next() {
		var rw ResultWithUser
		var aj string
		var sub, uc, uu int64
		var role string
		if err := rows.Scan(&rw.UserID, &rw.TestID, &aj, &rw.Score, &sub,
			&rw.User.TelegramID, &rw.User.FirstName, &rw.User.LastName, &rw.User.PhoneNumber, &role, &uc, &uu); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &rw.Answers); err != nil {
			return nil, err
		}
		rw.SubmittedAt = time.Unix(sub, 0)
		rw.User.Role = Role(role)
		rw.User.CreatedAt = time.Unix(uc, 0)
		rw.User.UpdatedAt = time.Unix(uu, 0)
		out = append(out, rw)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListResultsByUser(ctx context.Context, userID int64) ([]ResultWithTest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.user_id,r.test_id,r.answers_json,r.score,r.submitted_at,t.title,t.deadline
		FROM test_results r JOIN tests t ON t.id = r.test_id
		WHERE r.user_id=$1 ORDER BY r.submitted_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ResultWithTest
	for rows.Next() {
		var rt ResultWithTest
		var aj string
		var sub, dl int64
		if err := rows.Scan(&rt.UserID, &rt.TestID, &aj, &rt.Score, &sub, &rt.TestTitle, &dl); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &rt.Answers); err != nil {
			return nil, err
		}
		rt.SubmittedAt = time.Unix(sub, 0)
		rt.TestDeadline = time.Unix(dl, 0)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	var c, up int64
	if err := row.Scan(&u.TelegramID, &u.FirstName, &u.LastName, &u.PhoneNumber, &role, &c, &up); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	u.CreatedAt = time.Unix(c, 0)
	u.UpdatedAt = time.Unix(up, 0)
	return u, nil
}

func scanTest(row rowScanner) (Test, error) {
	var t Test
	var aj, fj string
	var dl, c, up int64
	if err := row.Scan(&t.ID, &t.Title, &aj, &fj, &dl, &t.CreatedBy, &c, &up); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrNotFound
		}
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(aj), &t.Answers); err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(fj), &t.FileIDs); err != nil {
		return Test{}, err
	}
	t.Deadline = time.Unix(dl, 0)
	t.CreatedAt = time.Unix(c, 0)
	t.UpdatedAt = time.Unix(up, 0)
	return t, nil
}

func collectTests(rows *sql.Rows) ([]Test, error) {
	defer rows.Close()
	var out []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func placeholder(n int) string {
	// Both the modernc sqlite driver and pgx accept $n.
	return "$" + strconv.Itoa(n)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "SQLSTATE 23505") || // pgx
		strings.Contains(msg, "duplicate key")
}
