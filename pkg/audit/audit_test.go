package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/login", nil)
	r.RemoteAddr = "10.0.0.9:4431"

	assert.Equal(t, "10.0.0.9", clientIP(r))

	r.Header.Set("X-Real-IP", "172.16.0.4")
	assert.Equal(t, "172.16.0.4", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(r))
}

func TestRecord_EnrichesFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-9")
	ctx = contextkeys.WithSessionID(ctx, "sid-abc")

	uid := int64(7)
	event := NewEvent(EventTypeAuthLogin, EventStatusSuccess)
	event.UserID = &uid
	event.Username = "alice"
	require.NoError(t, Record(ctx, event))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "auth.login", entry["event_type"])
	assert.Equal(t, "success", entry["status"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "sid-abc", entry["session_id"])
	assert.Equal(t, float64(7), entry["user_id"])
}

func TestRecord_WithoutLoggerIsNoOp(t *testing.T) {
	assert.NoError(t, Record(context.Background(), NewEvent(EventTypeAuthLogout, EventStatusSuccess)))
}

func TestFileLogger_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Log(context.Background(), NewEvent(EventTypeAuthLoginFailed, EventStatusFailure)))
	require.NoError(t, logger.Log(context.Background(), NewEvent(EventTypeAuthLogin, EventStatusSuccess)))
	require.NoError(t, logger.Close())

	t.Run("closed logger rejects writes", func(t *testing.T) {
		assert.Error(t, logger.Log(context.Background(), NewEvent(EventTypeAuthLogout, EventStatusSuccess)))
	})

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "each line is standalone JSON")
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestDBLogger_Log(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := NewDBLogger(db)
	uid := int64(42)
	event := NewEvent(EventTypeAuthzAccessDenied, EventStatusDenied)
	event.UserID = &uid
	event.Message = "denied by policy adminOnly"

	mock.ExpectExec(`INSERT INTO audit_events`).
		WithArgs(sqlmock.AnyArg(), "authz.access_denied", "denied", &uid,
			nil, nil, nil, nil, nil, "denied by policy adminOnly").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, logger.Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingLogger struct{ err error }

func (f failingLogger) Log(ctx context.Context, event *Event) error { return f.err }
func (f failingLogger) Close() error                                { return f.err }

func TestMultiLogger_DeliversToAllDespiteFailure(t *testing.T) {
	var buf bytes.Buffer
	ok := NewWriterLogger(&buf)
	failing := failingLogger{err: errors.New("disk full")}

	multi := NewMultiLogger(failing, ok)
	err := multi.Log(context.Background(), NewEvent(EventTypeAuthLogin, EventStatusSuccess))
	require.Error(t, err)
	assert.NotZero(t, buf.Len(), "healthy sink still received the event")
}
