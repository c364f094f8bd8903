package session

import (
	"context"
	"strconv"
)

// Well-known session attribute keys
const (
	// KeyLoginUserID holds the authenticated user's id
	KeyLoginUserID = "LOGIN_USER_ID"
	// KeyCSRFToken holds the per-session CSRF token
	KeyCSRFToken = "CSRF_TOKEN"
)

// Store is a server-side session store. A session is an opaque id mapping
// attribute keys to string values. Reads on absent sessions or attributes
// return ok=false, never an error; errors are reserved for store failures.
type Store interface {
	// Create allocates a new session and returns its id
	Create(ctx context.Context) (string, error)

	// Exists reports whether the session id refers to a live session.
	// This is a read-only probe and never creates a session.
	Exists(ctx context.Context, sid string) (bool, error)

	// Attribute reads one attribute. ok is false when the session or the
	// attribute is absent.
	Attribute(ctx context.Context, sid, key string) (value string, ok bool, err error)

	// Attributes returns all attributes of the session, nil when absent
	Attributes(ctx context.Context, sid string) (map[string]string, error)

	// SetAttribute writes one attribute on an existing session
	SetAttribute(ctx context.Context, sid, key, value string) error

	// RemoveAttribute deletes one attribute. Removing an absent attribute
	// is a no-op.
	RemoveAttribute(ctx context.Context, sid, key string) error

	// Invalidate destroys the whole session and every attribute in it.
	// Invalidating an absent session is a no-op.
	Invalidate(ctx context.Context, sid string) error
}

// AttributeInt64 reads an attribute as an int64. A missing attribute and a
// value that does not parse as an identifier collapse into the same ok=false
// result, so callers have a single "absent or invalid" path.
func AttributeInt64(ctx context.Context, s Store, sid, key string) (int64, bool, error) {
	raw, ok, err := s.Attribute(ctx, sid, key)
	if err != nil || !ok {
		return 0, false, err
	}
	v, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		return 0, false, nil
	}
	return v, true, nil
}
