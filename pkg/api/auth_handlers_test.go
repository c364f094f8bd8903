package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

func TestLogin(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "s3cret")

	t.Run("unknown username is not found", func(t *testing.T) {
		rec := f.client(t).do(http.MethodPost, "/api/login", loginRequest{Username: "mallory", Password: "s3cret"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := f.client(t).do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		rec := f.client(t).do(http.MethodPost, "/api/login", loginRequest{Username: "alice"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success establishes a session", func(t *testing.T) {
		c := f.client(t)
		rec := c.do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "s3cret"})
		require.Equal(t, http.StatusOK, rec.Code)

		var identity IdentityResponse
		decodeJSON(t, rec, &identity)
		assert.Equal(t, "alice", identity.Username)
		require.Len(t, c.cookies, 1)
		assert.Equal(t, session.DefaultCookieName, c.cookies[0].Name)

		rec = c.do(http.MethodGet, "/api/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeJSON(t, rec, &identity)
		assert.Equal(t, "alice", identity.Username)
		assert.Contains(t, identity.Roles, auth.RoleUser)
	})

	t.Run("failed login is audited", func(t *testing.T) {
		f.auditBuf.Reset()
		f.client(t).do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "nope"})
		assert.True(t, strings.Contains(f.auditBuf.String(), "auth.login_failed"))
	})
}

func TestMe_WithoutSession(t *testing.T) {
	f := newFixture(t, false)

	rec := f.client(t).do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "s3cret")

	c := f.client(t)
	rec := c.do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	sid := c.cookies[0].Value

	rec = c.do(http.MethodPost, "/api/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, c.cookies, "session cookie is cleared")

	t.Run("whole session is gone, not just the login attribute", func(t *testing.T) {
		exists, err := f.sessionStore.Exists(context.Background(), sid)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("introspection after logout is unauthorized", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/api/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout without a session is a no-op", func(t *testing.T) {
		rec := f.client(t).do(http.MethodPost, "/api/logout", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestStaleSessionAfterUserDeletion(t *testing.T) {
	f := newFixture(t, false)
	id := f.mustCreateUser(t, "alice", "s3cret")

	c := f.client(t)
	rec := c.do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The user disappears while the session still points at them
	_, err := f.userStore.DeleteByID(context.Background(), id)
	require.NoError(t, err)

	rec = c.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "stale session degrades to anonymous")

	// The middleware healed the session by clearing the dangling attribute
	sid := c.cookies[0].Value
	_, ok, err := session.AttributeInt64(context.Background(), f.sessionStore, sid, session.KeyLoginUserID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSRFEndpoint(t *testing.T) {
	t.Run("available in debug mode", func(t *testing.T) {
		f := newFixture(t, true)
		c := f.client(t)

		rec := c.do(http.MethodGet, "/api/csrf", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		decodeJSON(t, rec, &body)
		assert.NotEmpty(t, body["token"])
		assert.Equal(t, session.DefaultCookieName, body["cookie_name"])

		t.Run("token is stable per session", func(t *testing.T) {
			rec := c.do(http.MethodGet, "/api/csrf", nil)
			var again map[string]interface{}
			decodeJSON(t, rec, &again)
			assert.Equal(t, body["token"], again["token"])
		})
	})

	t.Run("absent outside debug mode", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.client(t).do(http.MethodGet, "/api/csrf", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
