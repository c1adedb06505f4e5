// Package gateway assembles basicgate's components from a config.Config:
// the user store backend, the authentication schemes and chain, and the
// HTTP router. Both binaries build on it.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/auth/basic"
	"github.com/rhuss/basicgate/pkg/auth/token"
	"github.com/rhuss/basicgate/pkg/config"
	transporthttp "github.com/rhuss/basicgate/pkg/transport/http"
	"github.com/rhuss/basicgate/pkg/userstore"
	"github.com/rhuss/basicgate/pkg/userstore/memory"
	"github.com/rhuss/basicgate/pkg/userstore/postgres"
)

// OpenStore creates the configured user store. The returned close function
// releases its resources and is never nil.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (userstore.Repository, func(), error) {
	switch cfg.Type {
	case "memory":
		store := memory.New()
		if cfg.UsersFile != "" {
			if _, err := store.LoadFile(ctx, cfg.UsersFile); err != nil {
				return nil, nil, fmt.Errorf("loading users file: %w", err)
			}
		}
		return store, func() {}, nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// Auth holds the authentication components built from config.
type Auth struct {
	Chain  *auth.AuthChain
	Basic  *basic.Scheme // nil unless configured
	Tokens *token.Scheme // nil unless configured
}

// BuildAuth creates the schemes selected by cfg.Type over repo. Bearer
// tokens are tried before Basic credentials; each abstains on the other's
// header, so the order only matters for logs.
func BuildAuth(cfg config.AuthConfig, repo userstore.Repository) (*Auth, error) {
	principals := userstore.Principals(repo)
	a := &Auth{Chain: &auth.AuthChain{DefaultDecision: auth.No}}

	if cfg.Type == config.AuthNone {
		slog.Warn("authentication disabled, every request is admitted")
		a.Chain.DefaultDecision = auth.Yes
		return a, nil
	}

	if cfg.UsesToken() {
		tokens, err := token.New(token.Config{
			Secret: []byte(cfg.Token.Secret),
			Issuer: cfg.Token.Issuer,
			TTL:    cfg.Token.TTL,
		}, principals)
		if err != nil {
			return nil, fmt.Errorf("creating token scheme: %w", err)
		}
		a.Tokens = tokens
		a.Chain.Authenticators = append(a.Chain.Authenticators, tokens)
	}

	if cfg.UsesBasic() {
		a.Basic = basic.New(principals)
		a.Chain.Authenticators = append(a.Chain.Authenticators, a.Basic)
	}

	return a, nil
}

// ExcludedPaths returns the configured exclusions or the defaults.
func ExcludedPaths(cfg config.AuthConfig) []string {
	if len(cfg.ExcludedPaths) > 0 {
		return cfg.ExcludedPaths
	}
	return auth.DefaultExcludedPaths
}

// NewHandler builds the API router for cfg.
func NewHandler(cfg *config.Config, repo userstore.Repository, a *Auth, logger *slog.Logger) http.Handler {
	var limiter auth.FailureLimiter
	if cfg.Auth.FailureLimit > 0 {
		limiter = auth.NewInProcessLimiter(cfg.Auth.FailureLimit)
	}

	var metricsPath string
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	return transporthttp.NewRouter(transporthttp.Options{
		Users:         repo,
		Chain:         a.Chain,
		Limiter:       limiter,
		ExcludedPaths: ExcludedPaths(cfg.Auth),
		Tokens:        a.Tokens,
		MetricsPath:   metricsPath,
		Logger:        logger,
	})
}
