package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Store is the user record store. Lookups return found=false for missing
// records; errors are reserved for store failures.
type Store interface {
	FindByID(ctx context.Context, id int64) (*User, bool, error)
	FindByUsername(ctx context.Context, username string) (*User, bool, error)
	Insert(ctx context.Context, username, passwordHash, nickname, email string) (int64, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
	UpdateEmail(ctx context.Context, id int64, email string) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, limit int) ([]User, error)
}

// SQLStore implements Store on a users table
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQL-backed user store
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const userColumns = "id, username, nickname, email, password, created_at, updated_at"

func scanUser(row *sql.Row) (*User, bool, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Nickname, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, true, nil
}

// FindByID looks up a user by primary key
func (s *SQLStore) FindByID(ctx context.Context, id int64) (*User, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// FindByUsername looks up a user by unique username
func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*User, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username)
	return scanUser(row)
}

// Insert creates a user and returns its id
func (s *SQLStore) Insert(ctx context.Context, username, passwordHash, nickname, email string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password, nickname, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`, username, passwordHash, nickname, email).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *SQLStore) update(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// UpdateNickname changes a user's nickname, returning rows affected
func (s *SQLStore) UpdateNickname(ctx context.Context, id int64, nickname string) (int64, error) {
	n, err := s.update(ctx, `
		UPDATE users SET nickname = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1
	`, id, nickname)
	if err != nil {
		return 0, fmt.Errorf("failed to update nickname: %w", err)
	}
	return n, nil
}

// UpdatePassword replaces a user's stored credential hash
func (s *SQLStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	n, err := s.update(ctx, `
		UPDATE users SET password = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to update password: %w", err)
	}
	return n, nil
}

// UpdateEmail changes a user's email
func (s *SQLStore) UpdateEmail(ctx context.Context, id int64, email string) (int64, error) {
	n, err := s.update(ctx, `
		UPDATE users SET email = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1
	`, id, email)
	if err != nil {
		return 0, fmt.Errorf("failed to update email: %w", err)
	}
	return n, nil
}

// DeleteByID removes a user, returning rows affected
func (s *SQLStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	n, err := s.update(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return n, nil
}

// List returns up to limit users ordered by id
func (s *SQLStore) List(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Nickname, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return out, nil
}

// DuplicateField inspects a store error and reports which unique constraint
// fired ("username" or "email"). Postgres reports unique violations as code
// 23505 with the constraint name; other drivers fall back to message
// inspection.
func DuplicateField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return "", false
		}
		return constraintField(pqErr.Constraint), true
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint") && !strings.Contains(msg, "duplicate key") {
		return "", false
	}
	return constraintField(msg), true
}

func constraintField(s string) string {
	switch {
	case strings.Contains(s, "username"):
		return "username"
	case strings.Contains(s, "email"):
		return "email"
	default:
		return ""
	}
}
