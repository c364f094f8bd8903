package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/roles"
	"github.com/platinummonkey/gatehouse/pkg/session"
	"github.com/platinummonkey/gatehouse/pkg/users"
)

// Resolution outcomes reported to metrics
const (
	OutcomeAuthenticated    = "authenticated"
	OutcomeAnonymous        = "anonymous"
	OutcomePreAuthenticated = "pre_authenticated"
	OutcomeStaleCleared     = "stale_cleared"
)

// SessionAuth resolves the session cookie to an authentication context.
// Every failure mode along the way degrades to anonymous; this middleware
// never rejects a request.
type SessionAuth struct {
	sessions *session.Manager
	users    users.Store
	roles    *roles.Resolver
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewSessionAuth creates the session resolution middleware. metrics may be nil.
func NewSessionAuth(sessions *session.Manager, userStore users.Store, roleResolver *roles.Resolver, logger *observability.Logger, metrics *observability.Metrics) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		users:    userStore,
		roles:    roleResolver,
		logger:   logger,
		metrics:  metrics,
	}
}

func (m *SessionAuth) observe(outcome string) {
	if m.metrics != nil {
		m.metrics.SessionResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

// Handler wraps next with session resolution
func (m *SessionAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Never overwrite a real identity injected by an earlier stage.
		// An explicitly-anonymous context still needs resolution.
		if existing, ok := ctx.Value(contextkeys.AuthKey).(*auth.Context); ok && existing.IsAuthenticated() {
			m.observe(OutcomePreAuthenticated)
			next.ServeHTTP(w, r)
			return
		}

		ac, outcome := m.resolve(r)
		m.observe(outcome)

		ctx = contextkeys.WithAuth(ctx, ac)
		if sid, ok := m.sessions.SessionID(r); ok {
			ctx = contextkeys.WithSessionID(ctx, sid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve walks the defensive resolution state machine and returns the
// context to install plus the outcome label
func (m *SessionAuth) resolve(r *http.Request) (*auth.Context, string) {
	ctx := r.Context()

	// Read-only probe; checking must not create a session
	sid, ok := m.sessions.SessionID(r)
	if !ok {
		return auth.Anonymous(), OutcomeAnonymous
	}

	store := m.sessions.Store()

	// Absent and wrong-typed attribute values share the same path
	userID, ok, err := session.AttributeInt64(ctx, store, sid, session.KeyLoginUserID)
	if err != nil {
		m.logger.WithError(err).Warn("session attribute read failed, continuing as anonymous")
		return auth.Anonymous(), OutcomeAnonymous
	}
	if !ok {
		return auth.Anonymous(), OutcomeAnonymous
	}

	user, found, err := m.users.FindByID(ctx, userID)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", userID).
			Warn("user lookup failed during session resolution, continuing as anonymous")
		return auth.Anonymous(), OutcomeAnonymous
	}
	if !found {
		// Stale session state: the user id no longer resolves. Clear the
		// attribute so subsequent requests on this session short-circuit
		// instead of repeating the failed lookup.
		if err := store.RemoveAttribute(ctx, sid, session.KeyLoginUserID); err != nil {
			m.logger.WithError(err).Warn("failed to clear stale session attribute")
		}
		m.logger.WithField("user_id", userID).Info("cleared stale user id from session")
		return auth.Anonymous(), OutcomeStaleCleared
	}

	roleSet, err := m.roles.ResolveRoles(ctx, userID)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", userID).
			Warn("role resolution failed, continuing as anonymous")
		return auth.Anonymous(), OutcomeAnonymous
	}

	return auth.Authenticated(user.Principal(), roleSet), OutcomeAuthenticated
}
