package roles

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the backing role store
type Store interface {
	// FindRolesByUserID returns the raw role tags for a user. The result may
	// contain duplicates and may be empty; callers are expected to dedupe.
	FindRolesByUserID(ctx context.Context, userID int64) ([]string, error)

	// AddRole grants a role to a user. Granting an already-held role is a no-op.
	AddRole(ctx context.Context, userID int64, role string) error
}

// SQLStore implements Store on a user_roles table
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQL-backed role store
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// FindRolesByUserID returns the role tags recorded for a user
func (s *SQLStore) FindRolesByUserID(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role FROM user_roles WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user roles: %w", err)
	}
	return tags, nil
}

// AddRole grants a role to a user
func (s *SQLStore) AddRole(ctx context.Context, userID int64, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}
