package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBLogger persists audit events to the audit_events table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger. The table is created
// by RunMigrations at startup.
func NewDBLogger(db *sql.DB) *DBLogger {
	return &DBLogger{db: db}
}

// Log inserts the event
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_events (occurred_at, event_type, status, user_id, username, session_id, request_id, ip_address, user_agent, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.Timestamp,
		string(event.EventType),
		string(event.Status),
		event.UserID,
		nullable(event.Username),
		nullable(event.SessionID),
		nullable(event.RequestID),
		nullable(event.IPAddress),
		nullable(event.UserAgent),
		nullable(event.Message),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Close is a no-op; the connection pool is owned by the caller
func (l *DBLogger) Close() error { return nil }

// Recent returns the newest events up to limit, optionally filtered by type
func (l *DBLogger) Recent(ctx context.Context, eventType EventType, limit int) ([]*Event, error) {
	query := `
		SELECT occurred_at, event_type, status, user_id, username, session_id, request_id, ip_address, user_agent, message
		FROM audit_events`
	args := []interface{}{}
	if eventType != "" {
		query += " WHERE event_type = $1"
		args = append(args, string(eventType))
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var (
			e         Event
			occurred  time.Time
			userID    sql.NullInt64
			username  sql.NullString
			sessionID sql.NullString
			requestID sql.NullString
			ipAddress sql.NullString
			userAgent sql.NullString
			message   sql.NullString
		)
		if err := rows.Scan(&occurred, &e.EventType, &e.Status, &userID, &username, &sessionID, &requestID, &ipAddress, &userAgent, &message); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Timestamp = occurred
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		e.Username = username.String
		e.SessionID = sessionID.String
		e.RequestID = requestID.String
		e.IPAddress = ipAddress.String
		e.UserAgent = userAgent.String
		e.Message = message.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
