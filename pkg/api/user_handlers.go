package api

import (
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/apierr"
	"github.com/platinummonkey/gatehouse/pkg/audit"
	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
	"github.com/platinummonkey/gatehouse/pkg/httputil"
)

// writeError maps the error to HTTP and records authorization denials
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if apierr.IsKind(err, apierr.KindForbidden) {
		if s.metrics != nil {
			s.metrics.PolicyDenialsTotal.WithLabelValues(operation).Inc()
		}
		ev := audit.NewEvent(audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied).WithRequest(r)
		if p, ok := contextkeys.GetAuth(r.Context()).Principal(); ok {
			ev.UserID = &p.ID
			ev.Username = p.Username
		}
		ev.Message = operation
		audit.Record(r.Context(), ev)
	}
	httputil.WriteAPIError(w, err)
}

// createUser handles POST /api/users. Signup is open; the baseline role is
// granted by the service.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	id, err := s.users.Create(r.Context(), req.Username, req.Password, req.Nickname, req.Email)
	if err != nil {
		s.writeError(w, r, "users.create", err)
		return
	}

	ev := audit.NewEvent(audit.EventTypeUserCreate, audit.EventStatusSuccess).WithRequest(r)
	ev.UserID = &id
	ev.Username = req.Username
	audit.Record(r.Context(), ev)

	httputil.WriteCreated(w, map[string]int64{"id": id})
}

// getUser handles GET /api/users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	u, err := s.users.Get(r.Context(), contextkeys.GetAuth(r.Context()), id)
	if err != nil {
		s.writeError(w, r, "users.get", err)
		return
	}
	httputil.WriteSuccess(w, toUserView(u))
}

// listUsers handles GET /api/users?limit=N
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", 100)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	out, err := s.users.List(r.Context(), contextkeys.GetAuth(r.Context()), limit)
	if err != nil {
		s.writeError(w, r, "users.list", err)
		return
	}

	views := make([]UserView, 0, len(out))
	for i := range out {
		views = append(views, toUserView(&out[i]))
	}
	httputil.WriteSuccess(w, views)
}

// changeNickname handles PATCH /api/users/{id}/nickname
func (s *Server) changeNickname(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Nickname string `json:"nickname"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Nickname, "nickname") {
		return
	}

	if err := s.users.ChangeNickname(r.Context(), contextkeys.GetAuth(r.Context()), id, req.Nickname); err != nil {
		s.writeError(w, r, "users.change_nickname", err)
		return
	}
	httputil.WriteNoContent(w)
}

// changePassword handles PATCH /api/users/{id}/password. A successful change
// re-encodes the credential under the current default algorithm.
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	if err := s.users.ChangePassword(r.Context(), contextkeys.GetAuth(r.Context()), id, req.Password); err != nil {
		s.writeError(w, r, "users.change_password", err)
		return
	}

	ev := audit.NewEvent(audit.EventTypeAuthPasswordChange, audit.EventStatusSuccess).WithRequest(r)
	ev.UserID = &id
	audit.Record(r.Context(), ev)

	httputil.WriteNoContent(w)
}

// changeEmail handles PATCH /api/users/{id}/email
func (s *Server) changeEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.users.ChangeEmail(r.Context(), contextkeys.GetAuth(r.Context()), id, req.Email); err != nil {
		s.writeError(w, r, "users.change_email", err)
		return
	}
	httputil.WriteNoContent(w)
}

// deleteUser handles DELETE /api/users/{id}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), contextkeys.GetAuth(r.Context()), id); err != nil {
		s.writeError(w, r, "users.delete", err)
		return
	}

	ev := audit.NewEvent(audit.EventTypeUserDelete, audit.EventStatusSuccess).WithRequest(r)
	ev.UserID = &id
	audit.Record(r.Context(), ev)

	httputil.WriteNoContent(w)
}
