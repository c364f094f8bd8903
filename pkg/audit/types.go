package audit

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// EventType categorizes an audit event
type EventType string

const (
	EventTypeAuthLogin          EventType = "auth.login"
	EventTypeAuthLoginFailed    EventType = "auth.login_failed"
	EventTypeAuthLogout         EventType = "auth.logout"
	EventTypeAuthPasswordChange EventType = "auth.password_change"

	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	EventTypeUserCreate EventType = "user.create"
	EventTypeUserUpdate EventType = "user.update"
	EventTypeUserDelete EventType = "user.delete"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event is a single audit record
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`
	UserID    *int64      `json:"user_id,omitempty"`
	Username  string      `json:"username,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}
}

// WithRequest fills in the transport fields from an HTTP request
func (e *Event) WithRequest(r *http.Request) *Event {
	if r == nil {
		return e
	}
	e.IPAddress = clientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
