package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// login is a shorthand for the repeated login dance in these tests
func (c *client) login(username, pw string) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/login", loginRequest{Username: username, Password: pw})
	require.Equal(c.t, http.StatusOK, rec.Code)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t, false)
	c := f.client(t)

	rec := c.do(http.MethodPost, "/api/users", createUserRequest{
		Username: "Alice", Password: "s3cret", Nickname: "Al", Email: "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]int64
	decodeJSON(t, rec, &body)
	assert.NotZero(t, body["id"])

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/api/users", createUserRequest{
			Username: "alice", Password: "pw", Nickname: "other", Email: "other@example.com",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "username")
	})

	t.Run("missing password is rejected", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/api/users", createUserRequest{Username: "bob"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"x","password":"y"}`))
		r.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetUser_Authorization(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "pw-alice")
	f.mustCreateUser(t, "bob", "pw-bob")

	t.Run("anonymous is forbidden", func(t *testing.T) {
		rec := f.client(t).do(http.MethodGet, "/api/users/1", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("self can read", func(t *testing.T) {
		c := f.client(t)
		c.login("alice", "pw-alice")
		rec := c.do(http.MethodGet, "/api/users/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var view UserView
		decodeJSON(t, rec, &view)
		assert.Equal(t, "alice", view.Username)
		assert.NotContains(t, rec.Body.String(), "password", "credential hash never leaves the service")
	})

	t.Run("another user is forbidden and audited", func(t *testing.T) {
		f.auditBuf.Reset()
		c := f.client(t)
		c.login("bob", "pw-bob")
		rec := c.do(http.MethodGet, "/api/users/1", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "forbidden")
		assert.True(t, strings.Contains(f.auditBuf.String(), "authz.access_denied"))
	})

	t.Run("admin can read anyone", func(t *testing.T) {
		adminID := f.mustCreateUser(t, "root", "pw-root")
		f.grantAdmin(adminID)

		c := f.client(t)
		c.login("root", "pw-root")
		rec := c.do(http.MethodGet, "/api/users/1", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		t.Run("missing user is not found, not forbidden", func(t *testing.T) {
			rec := c.do(http.MethodGet, "/api/users/424242", nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	})

	t.Run("garbage id is a bad request", func(t *testing.T) {
		c := f.client(t)
		c.login("alice", "pw-alice")
		rec := c.do(http.MethodGet, "/api/users/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListUsers(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "pw-alice")
	adminID := f.mustCreateUser(t, "root", "pw-root")
	f.grantAdmin(adminID)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		c := f.client(t)
		c.login("alice", "pw-alice")
		rec := c.do(http.MethodGet, "/api/users", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists with limit", func(t *testing.T) {
		c := f.client(t)
		c.login("root", "pw-root")
		rec := c.do(http.MethodGet, "/api/users?limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []UserView
		decodeJSON(t, rec, &views)
		assert.Len(t, views, 1)
	})

	t.Run("non-positive limit is invalid", func(t *testing.T) {
		c := f.client(t)
		c.login("root", "pw-root")
		rec := c.do(http.MethodGet, "/api/users?limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChangePassword_EndToEnd(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "old-pw")

	c := f.client(t)
	c.login("alice", "old-pw")

	rec := c.do(http.MethodPatch, "/api/users/1/password", map[string]string{"password": "new-pw"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("old password no longer works", func(t *testing.T) {
		rec := f.client(t).do(http.MethodPost, "/api/login", loginRequest{Username: "alice", Password: "old-pw"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("new password works", func(t *testing.T) {
		f.client(t).login("alice", "new-pw")
	})

	t.Run("change is audited", func(t *testing.T) {
		assert.True(t, strings.Contains(f.auditBuf.String(), "auth.password_change"))
	})
}

func TestChangeNickname(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "pw")

	c := f.client(t)
	c.login("alice", "pw")

	rec := c.do(http.MethodPatch, "/api/users/1/nickname", map[string]string{"nickname": "NewNick"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/api/users/1", nil)
	var view UserView
	decodeJSON(t, rec, &view)
	assert.Equal(t, "newnick", view.Nickname)

	t.Run("another user cannot change it", func(t *testing.T) {
		f.mustCreateUser(t, "bob", "pw-bob")
		c := f.client(t)
		c.login("bob", "pw-bob")
		rec := c.do(http.MethodPatch, "/api/users/1/nickname", map[string]string{"nickname": "hacked"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestDeleteUser_SelfService(t *testing.T) {
	f := newFixture(t, false)
	f.mustCreateUser(t, "alice", "pw")

	c := f.client(t)
	c.login("alice", "pw")

	rec := c.do(http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("session degrades to anonymous afterwards", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/api/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
