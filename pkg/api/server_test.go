package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/audit"
	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/password"
	"github.com/platinummonkey/gatehouse/pkg/roles"
	"github.com/platinummonkey/gatehouse/pkg/session"
	"github.com/platinummonkey/gatehouse/pkg/users"
)

// fakeUserStore is an in-memory users.Store for handler tests
type fakeUserStore struct {
	nextID int64
	users  map[int64]*users.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[int64]*users.User)}
}

func (f *fakeUserStore) FindByID(ctx context.Context, id int64) (*users.User, bool, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, false, nil
	}
	cp := *u
	return &cp, true, nil
}

func (f *fakeUserStore) FindByUsername(ctx context.Context, username string) (*users.User, bool, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeUserStore) Insert(ctx context.Context, username, passwordHash, nickname, email string) (int64, error) {
	for _, u := range f.users {
		if u.Username == username {
			return 0, &pq.Error{Code: "23505", Constraint: "users_username_key"}
		}
		if email != "" && u.Email == email {
			return 0, &pq.Error{Code: "23505", Constraint: "users_email_key"}
		}
	}
	id := f.nextID
	f.nextID++
	now := time.Now()
	f.users[id] = &users.User{
		ID: id, Username: username, Nickname: nickname, Email: email,
		PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (f *fakeUserStore) UpdateNickname(ctx context.Context, id int64, nickname string) (int64, error) {
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	u.Nickname = nickname
	return 1, nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	u.PasswordHash = passwordHash
	return 1, nil
}

func (f *fakeUserStore) UpdateEmail(ctx context.Context, id int64, email string) (int64, error) {
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	u.Email = email
	return 1, nil
}

func (f *fakeUserStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

func (f *fakeUserStore) List(ctx context.Context, limit int) ([]users.User, error) {
	var out []users.User
	for id := int64(1); id < f.nextID && len(out) < limit; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeRoleStore is an in-memory roles.Store
type fakeRoleStore struct {
	roles map[int64][]string
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: make(map[int64][]string)}
}

func (f *fakeRoleStore) FindRolesByUserID(ctx context.Context, userID int64) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeRoleStore) AddRole(ctx context.Context, userID int64, role string) error {
	f.roles[userID] = append(f.roles[userID], role)
	return nil
}

// fixture bundles the server with direct access to its fakes
type fixture struct {
	handler      http.Handler
	server       *Server
	userStore    *fakeUserStore
	roleStore    *fakeRoleStore
	sessionStore *session.MemoryStore
	svc          *users.Service
	auditBuf     *bytes.Buffer
}

func newFixture(t *testing.T, debug bool) *fixture {
	t.Helper()

	userStore := newFakeUserStore()
	roleStore := newFakeRoleStore()
	sessionStore, err := session.NewMemoryStore(128, time.Minute)
	require.NoError(t, err)

	svc := users.NewService(userStore, roleStore, password.NewDefaultVerifier())
	mgr := session.NewManager(sessionStore, session.DefaultCookieName, false)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	var auditBuf bytes.Buffer

	srv := NewServer(Options{
		Users:     svc,
		UserStore: userStore,
		Roles:     roles.NewResolver(roleStore),
		Sessions:  mgr,
		Logger:    logger,
		Auditor:   audit.NewWriterLogger(&auditBuf),
		Debug:     debug,
	})

	return &fixture{
		handler:      srv.Handler(),
		server:       srv,
		userStore:    userStore,
		roleStore:    roleStore,
		sessionStore: sessionStore,
		svc:          svc,
		auditBuf:     &auditBuf,
	}
}

// client carries cookies between requests like a browser would
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (f *fixture) client(t *testing.T) *client {
	return &client{t: t, handler: f.handler}
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		r.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, r)

	// Apply Set-Cookie like a browser: overwrite by name, drop expired
	for _, set := range rec.Result().Cookies() {
		kept := c.cookies[:0]
		for _, existing := range c.cookies {
			if existing.Name != set.Name {
				kept = append(kept, existing)
			}
		}
		c.cookies = kept
		if set.MaxAge >= 0 {
			c.cookies = append(c.cookies, set)
		}
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

// mustCreateUser provisions a user directly through the service
func (f *fixture) mustCreateUser(t *testing.T, username, pw string) int64 {
	t.Helper()
	id, err := f.svc.Create(context.Background(), username, pw, username, username+"@example.com")
	require.NoError(t, err)
	return id
}

func (f *fixture) grantAdmin(id int64) {
	f.roleStore.roles[id] = append(f.roleStore.roles[id], auth.RoleAdmin)
}
