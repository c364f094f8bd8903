package users

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the DDL variant for schema statements. Values match the
// storage driver names.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// serialPK returns the auto-incrementing 64-bit primary key column for the
// dialect. Everything else in the schema is written in the portable subset
// both drivers accept.
func (d Dialect) serialPK() string {
	if d == DialectSQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the user and role schema migrations
func GetMigrations(dialect Dialect) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS users (
					id %s,
					username VARCHAR(255) NOT NULL,
					password VARCHAR(512) NOT NULL,
					nickname VARCHAR(255) NOT NULL,
					email VARCHAR(255),
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT users_username_key UNIQUE (username),
					CONSTRAINT users_email_key UNIQUE (email)
				);

				CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
			`, dialect.serialPK()),
		},
		{
			Version:     2,
			Description: "Create user_roles table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS user_roles (
					id %s,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role VARCHAR(100) NOT NULL,
					granted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, role)
				);

				CREATE INDEX IF NOT EXISTS idx_user_roles_user_id ON user_roles(user_id);
			`, dialect.serialPK()),
		},
		{
			Version:     3,
			Description: "Create audit_events table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS audit_events (
					id %s,
					occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					event_type VARCHAR(100) NOT NULL,
					status VARCHAR(20) NOT NULL,
					user_id BIGINT,
					username VARCHAR(255),
					session_id VARCHAR(64),
					request_id VARCHAR(64),
					ip_address VARCHAR(45),
					user_agent TEXT,
					message TEXT
				);

				CREATE INDEX IF NOT EXISTS idx_audit_events_event_type ON audit_events(event_type);
				CREATE INDEX IF NOT EXISTS idx_audit_events_user_id ON audit_events(user_id);
				CREATE INDEX IF NOT EXISTS idx_audit_events_occurred_at ON audit_events(occurred_at);
			`, dialect.serialPK()),
		},
	}
}

// RunMigrations applies all pending migrations inside transactions
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS gatehouse_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM gatehouse_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations(dialect) {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gatehouse_migrations (version, description) VALUES ($1, $2)
		`, migration.Version, migration.Description); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
