package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/gatehouse/pkg/audit"
	"github.com/platinummonkey/gatehouse/pkg/httputil"
	"github.com/platinummonkey/gatehouse/pkg/middleware"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/roles"
	"github.com/platinummonkey/gatehouse/pkg/session"
	"github.com/platinummonkey/gatehouse/pkg/users"
)

// MaxBodyBytes bounds request bodies; no legitimate request carries more
const MaxBodyBytes = 1 << 20

// Server is the API server
type Server struct {
	router      *mux.Router
	users       *users.Service
	sessions    *session.Manager
	sessionAuth *middleware.SessionAuth
	logger      *observability.Logger
	metrics     *observability.Metrics
	auditor     audit.Logger
	tracing     bool
	debug       bool
}

// Options wires the server's dependencies. Metrics and Auditor may be nil.
type Options struct {
	Users     *users.Service
	UserStore users.Store
	Roles     *roles.Resolver
	Sessions  *session.Manager
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Auditor   audit.Logger
	Tracing   bool
	Debug     bool
}

// NewServer creates the API server and sets up its routes
func NewServer(opts Options) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		users:    opts.Users,
		sessions: opts.Sessions,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		auditor:  opts.Auditor,
		tracing:  opts.Tracing,
		debug:    opts.Debug,
	}
	s.sessionAuth = middleware.NewSessionAuth(opts.Sessions, opts.UserStore, opts.Roles, opts.Logger, opts.Metrics)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/logout", s.logout).Methods("POST")
	s.router.HandleFunc("/api/me", s.me).Methods("GET")

	s.router.HandleFunc("/api/users", s.createUser).Methods("POST")
	s.router.HandleFunc("/api/users", s.listUsers).Methods("GET")
	s.router.HandleFunc("/api/users/{id}", s.getUser).Methods("GET")
	s.router.HandleFunc("/api/users/{id}/nickname", s.changeNickname).Methods("PATCH")
	s.router.HandleFunc("/api/users/{id}/password", s.changePassword).Methods("PATCH")
	s.router.HandleFunc("/api/users/{id}/email", s.changeEmail).Methods("PATCH")
	s.router.HandleFunc("/api/users/{id}", s.deleteUser).Methods("DELETE")

	if s.debug {
		s.router.HandleFunc("/api/csrf", s.csrfToken).Methods("GET")
	}
}

// injectContext installs the application logger and audit sink so handlers
// and lower layers can pull them from the request context
func (s *Server) injectContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithLogger(r.Context(), s.logger)
		if s.auditor != nil {
			ctx = audit.WithLogger(ctx, s.auditor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the router wrapped in the full middleware chain. Session
// resolution runs last so every inner middleware sees the raw request and
// every handler sees a resolved authentication context.
func (s *Server) Handler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		observability.RecoveryMiddleware(s.logger),
	}
	if s.metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(s.metrics))
	}
	chain = append(chain,
		s.injectContext,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(MaxBodyBytes),
		s.sessionAuth.Handler,
	)

	handler := httputil.Chain(chain...)(s.router)
	if s.tracing {
		handler = otelhttp.NewHandler(handler, "gatehouse")
	}
	return handler
}
