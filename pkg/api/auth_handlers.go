package api

import (
	"net/http"
	"strconv"

	"github.com/platinummonkey/gatehouse/pkg/apierr"
	"github.com/platinummonkey/gatehouse/pkg/audit"
	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
	"github.com/platinummonkey/gatehouse/pkg/httputil"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

func (s *Server) observeLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}

// login handles POST /api/login. Credentials are verified first; the login
// attribute is written to the session only after success.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	userID, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindNotFound:
			s.observeLogin("not_found")
		case apierr.KindUnauthenticated:
			s.observeLogin("bad_credentials")
		default:
			s.observeLogin("error")
		}

		ev := audit.NewEvent(audit.EventTypeAuthLoginFailed, audit.EventStatusFailure).WithRequest(r)
		ev.Username = req.Username
		audit.Record(ctx, ev)

		httputil.WriteAPIError(w, err)
		return
	}

	sid, err := s.sessions.Establish(ctx, w, r)
	if err != nil {
		s.observeLogin("error")
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to establish session", err))
		return
	}
	if err := s.sessions.Store().SetAttribute(ctx, sid, session.KeyLoginUserID, strconv.FormatInt(userID, 10)); err != nil {
		s.observeLogin("error")
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to persist login state", err))
		return
	}

	s.observeLogin("success")
	if s.metrics != nil {
		s.metrics.SessionsEstablishedTotal.Inc()
	}

	principal, err := s.users.LookupPrincipal(ctx, userID)
	if err != nil {
		httputil.WriteAPIError(w, err)
		return
	}

	ev := audit.NewEvent(audit.EventTypeAuthLogin, audit.EventStatusSuccess).WithRequest(r)
	ev.UserID = &userID
	ev.Username = principal.Username
	ev.SessionID = sid
	audit.Record(ctx, ev)

	httputil.WriteSuccess(w, IdentityResponse{
		ID:       principal.ID,
		Username: principal.Username,
		Nickname: principal.Nickname,
	})
}

// logout handles POST /api/logout. The whole session is invalidated, not
// just the login attribute; logging out without a session is a no-op.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ev := audit.NewEvent(audit.EventTypeAuthLogout, audit.EventStatusSuccess).WithRequest(r)
	if p, ok := contextkeys.GetAuth(ctx).Principal(); ok {
		ev.UserID = &p.ID
		ev.Username = p.Username
	}

	hadSession := false
	if _, ok := s.sessions.SessionID(r); ok {
		hadSession = true
	}

	if err := s.sessions.Destroy(ctx, w, r); err != nil {
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to invalidate session", err))
		return
	}

	if hadSession {
		if s.metrics != nil {
			s.metrics.SessionsInvalidatedTotal.Inc()
		}
		audit.Record(ctx, ev)
	}

	httputil.WriteNoContent(w)
}

// me handles GET /api/me: identity introspection for the current session
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ac := contextkeys.GetAuth(r.Context())

	p, ok := ac.Principal()
	if !ok {
		httputil.WriteAPIError(w, apierr.New(apierr.KindUnauthenticated, "authentication required"))
		return
	}

	httputil.WriteSuccess(w, IdentityResponse{
		ID:       p.ID,
		Username: p.Username,
		Nickname: p.Nickname,
		Roles:    ac.Roles().Tags(),
	})
}

// csrfToken handles GET /api/csrf, a debug endpoint that establishes a
// session if needed and returns its CSRF token
func (s *Server) csrfToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sid, err := s.sessions.Establish(ctx, w, r)
	if err != nil {
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to establish session", err))
		return
	}

	token, err := s.sessions.CSRFToken(ctx, sid)
	if err != nil {
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to mint csrf token", err))
		return
	}

	attrs, err := s.sessions.Store().Attributes(ctx, sid)
	if err != nil {
		httputil.WriteAPIError(w, apierr.Wrap(apierr.KindInternal, "failed to read session attributes", err))
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"token":       token,
		"header_name": "X-CSRF-Token",
		"cookie_name": s.sessions.CookieName(),
		"attributes":  attrs,
	})
}
