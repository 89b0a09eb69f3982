package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/launchpad/pkg/httputil"
	"github.com/platinummonkey/launchpad/pkg/middleware"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero
const DefaultMaxBodyBytes = 1 << 20

// Config assembles the dependencies of the HTTP gateway
type Config struct {
	Billing  BillingService
	Projects ProjectService
	Auth     middleware.TokenValidator

	// Limiter throttles /api/user routes per caller. Nil disables rate limiting.
	Limiter middleware.Limiter
	// Metrics records HTTP request metrics. Nil disables instrumentation.
	Metrics *observability.Metrics
	Logger  *observability.Logger

	CORSOrigins  []string
	MaxBodyBytes int64
}

// Server is the launchpad HTTP API
type Server struct {
	router  *mux.Router
	handler http.Handler
}

// NewServer creates the API server and registers every route
func NewServer(cfg Config) (*Server, error) {
	if cfg.Billing == nil || cfg.Projects == nil {
		return nil, errors.New("api: billing and project services are required")
	}
	if cfg.Auth == nil {
		return nil, errors.New("api: token validator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{router: mux.NewRouter()}
	s.setupRoutes(cfg)

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(cfg.Logger),
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(cfg.CORSOrigins),
		httputil.MaxBytesMiddleware(cfg.MaxBodyBytes),
		httputil.ContentTypeMiddleware,
	)(s.router)

	return s, nil
}

func (s *Server) setupRoutes(cfg Config) {
	if cfg.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(cfg.Metrics))
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	billingHandlers := NewBillingHandlers(cfg.Billing)
	projectHandlers := NewProjectHandlers(cfg.Projects)

	public := s.router.PathPrefix("/api").Subrouter()
	billingHandlers.RegisterPublicRoutes(public)

	user := s.router.PathPrefix("/api/user").Subrouter()
	user.Use(middleware.NewAuthMiddleware(cfg.Auth, false).Handler)
	if cfg.Limiter != nil {
		user.Use(middleware.RateLimit(cfg.Limiter))
	}
	billingHandlers.RegisterRoutes(user)
	projectHandlers.RegisterRoutes(user)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router returns the underlying router, without the outer middleware chain
func (s *Server) Router() *mux.Router {
	return s.router
}
