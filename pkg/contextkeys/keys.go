// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/platinummonkey/gatehouse/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.Context
	// Set by: middleware.SessionAuth (pkg/middleware/session.go)
	// Required by: policy evaluation, all protected endpoints
	AuthKey Key = "auth_context"

	// SessionIDKey contains the opaque session id string
	// Set by: middleware.SessionAuth when the request carries a session cookie
	// Used by: login/logout handlers, diagnostics
	SessionIDKey Key = "session_id"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestID middleware
	// Used by: logging, audit trail
	RequestIDKey Key = "request_id"
)

// WithAuth adds the authentication context to the context
func WithAuth(ctx context.Context, ac *auth.Context) context.Context {
	return context.WithValue(ctx, AuthKey, ac)
}

// GetAuth retrieves the authentication context, or an anonymous one when absent.
// The session middleware always installs a context, so handlers can rely on a
// non-nil result.
func GetAuth(ctx context.Context) *auth.Context {
	if ac, ok := ctx.Value(AuthKey).(*auth.Context); ok && ac != nil {
		return ac
	}
	return auth.Anonymous()
}

// WithSessionID adds the session id to the context
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sid)
}

// GetSessionID retrieves the session id from context, empty when absent
func GetSessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(SessionIDKey).(string); ok {
		return sid
	}
	return ""
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
