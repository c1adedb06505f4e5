package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/auth/token"
	"github.com/rhuss/basicgate/pkg/observability"
	"github.com/rhuss/basicgate/pkg/transport"
	"github.com/rhuss/basicgate/pkg/userstore"
)

// HealthPath is the liveness endpoint. It never requires authentication.
const HealthPath = "/healthz"

// Options configures the API router.
type Options struct {
	// Users backs the user endpoints and the stats counter. Required.
	Users userstore.Repository

	// Chain decides who made each request. Required.
	Chain *auth.AuthChain

	// Limiter throttles clients with repeated failed attempts. Optional.
	Limiter auth.FailureLimiter

	// ExcludedPaths skip authentication. The health and metrics paths are
	// always added.
	ExcludedPaths []string

	// Tokens enables POST /api/v1/auth/token when set.
	Tokens *token.Scheme

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /healthz - Liveness probe
//   - GET /metrics - Prometheus metrics (path configurable)
//   - GET /api/v1/status - Service status
//   - GET /api/v1/stats - User count
//   - GET /api/v1/unauthorized, /api/v1/forbidden - Fixed error responses
//   - GET|POST /api/v1/users - List or create users
//   - GET|DELETE /api/v1/users/{id} - Read or delete a user ("me" is the caller)
//   - POST /api/v1/auth/token - Issue a bearer token for the caller
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	excluded := append([]string{HealthPath}, opts.ExcludedPaths...)
	if opts.MetricsPath != "" {
		excluded = append(excluded, opts.MetricsPath)
	}

	h := &handlers{users: opts.Users, tokens: opts.Tokens}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.StripSlashes)
	r.Use(transport.Recovery())
	r.Use(transport.RequestID())
	r.Use(transport.Logging(logger))
	r.Use(observability.MetricsMiddleware(routePattern))
	r.Use(auth.Middleware(opts.Chain, opts.Limiter, excluded))

	r.Get(HealthPath, h.health)
	if opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/stats", h.stats)
		r.Get("/unauthorized", h.unauthorized)
		r.Get("/forbidden", h.forbidden)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Get("/{id}", h.getUser)
			r.Delete("/{id}", h.deleteUser)
		})

		if opts.Tokens != nil {
			r.Post("/auth/token", h.issueToken)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// routePattern labels metrics with the matched chi pattern so user IDs do
// not become label values.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// healthChecker is implemented by stores with an external dependency.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}
