package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileLogger appends audit events as JSON lines to a log file
type FileLogger struct {
	mu     sync.Mutex
	log    *logrus.Logger
	file   *os.File
	closed bool
}

// NewFileLogger opens (or creates) the audit log file at path
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(file)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetLevel(logrus.InfoLevel)

	return &FileLogger{log: log, file: file}, nil
}

// NewWriterLogger writes audit events to an arbitrary writer. Used by tests
// and by deployments that ship audit logs through stdout.
func NewWriterLogger(w io.Writer) *FileLogger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	return &FileLogger{log: log}
}

// Log writes the event as one JSON line
func (l *FileLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("audit logger is closed")
	}

	fields := logrus.Fields{
		"event_type": string(event.EventType),
		"status":     string(event.Status),
		"timestamp":  event.Timestamp,
	}
	if event.UserID != nil {
		fields["user_id"] = *event.UserID
	}
	if event.Username != "" {
		fields["username"] = event.Username
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.IPAddress != "" {
		fields["ip_address"] = event.IPAddress
	}
	if event.UserAgent != "" {
		fields["user_agent"] = event.UserAgent
	}

	l.log.WithFields(fields).Info(event.Message)
	return nil
}

// Close flushes and closes the underlying file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
