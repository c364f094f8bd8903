package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// DefaultCookieName carries the session id
const DefaultCookieName = "gatehouse_session"

// Manager binds the session store to the HTTP cookie transport
type Manager struct {
	store      Store
	cookieName string
	secure     bool
}

// NewManager creates a session manager
func NewManager(store Store, cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{store: store, cookieName: cookieName, secure: secure}
}

// Store returns the underlying session store
func (m *Manager) Store() Store {
	return m.store
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	return m.cookieName
}

// SessionID extracts the session id from the request cookie. It does not
// touch the store; a returned id may refer to an expired session.
func (m *Manager) SessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Establish ensures the request has a live session, creating one and setting
// the cookie when needed, and returns its id
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if sid, ok := m.SessionID(r); ok {
		live, err := m.store.Exists(ctx, sid)
		if err != nil {
			return "", err
		}
		if live {
			return sid, nil
		}
	}

	sid, err := m.store.Create(ctx)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

// Destroy invalidates the request's session, if any, and expires the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sid, ok := m.SessionID(r)
	if !ok {
		return nil
	}
	if err := m.store.Invalidate(ctx, sid); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return nil
}

// CSRFToken returns the session's CSRF token, minting one on first use
func (m *Manager) CSRFToken(ctx context.Context, sid string) (string, error) {
	token, ok, err := m.store.Attribute(ctx, sid, KeyCSRFToken)
	if err != nil {
		return "", err
	}
	if ok {
		return token, nil
	}
	token = uuid.NewString()
	if err := m.store.SetAttribute(ctx, sid, KeyCSRFToken, token); err != nil {
		return "", err
	}
	return token, nil
}
