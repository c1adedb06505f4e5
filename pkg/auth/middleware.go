package auth

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/rhuss/basicgate/pkg/debug"
	"github.com/rhuss/basicgate/pkg/observability"
	"github.com/rhuss/basicgate/pkg/transport"
)

// Middleware creates HTTP middleware from an AuthChain and optional
// FailureLimiter. Requests whose path matches excluded skip authentication.
// Everything else runs the chain; a No vote becomes a 401 and a Yes vote
// stores the principal in the request context.
func Middleware(chain *AuthChain, limiter FailureLimiter, excluded []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RequiresAuth(r.URL.Path, excluded) {
				next.ServeHTTP(w, r)
				return
			}

			client := clientKey(r)
			if limiter != nil {
				if err := limiter.Allow(r.Context(), client); err != nil {
					slog.Warn("authentication throttled", "client", client, "path", r.URL.Path)
					observability.FailureLimitRejectedTotal.Inc()
					transport.WriteError(w, http.StatusTooManyRequests, "Too many requests")
					return
				}
			}

			result := chain.Authenticate(r.Context(), r)
			observability.AuthAttemptsTotal.WithLabelValues(schemeLabel(result.Scheme), result.Decision.String()).Inc()

			if result.Decision != Yes {
				debug.Log("auth", "authentication failed",
					"path", r.URL.Path,
					"client", client,
					"scheme", result.Scheme,
					"error", result.Err,
				)
				if limiter != nil && result.Scheme != "" {
					limiter.Fail(r.Context(), client)
				}
				transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if limiter != nil {
				limiter.Reset(r.Context(), client)
			}

			ctx := r.Context()
			if result.Principal != nil {
				debug.Log("auth", "authentication succeeded",
					"principal", result.Principal.ID(),
					"scheme", result.Scheme,
					"path", r.URL.Path,
				)
				ctx = SetPrincipal(ctx, result.Principal)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultExcludedPaths lists paths that skip authentication.
var DefaultExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/healthz",
	"/metrics",
}

// clientKey identifies the caller for failure limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func schemeLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
