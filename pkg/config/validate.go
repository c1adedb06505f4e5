package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
		if c.Storage.UsersFile != "" {
			errs = append(errs, fmt.Errorf("storage.users_file is only supported when storage.type is \"memory\""))
		}
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case AuthNone, AuthBasic, AuthToken, AuthChain:
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"basic\", \"token\", or \"chain\", got %q", c.Auth.Type))
	}

	if c.Auth.UsesToken() {
		if c.Auth.Token.Secret == "" && c.Auth.Token.SecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.token.secret or auth.token.secret_file is required when auth.type is %q", c.Auth.Type))
		}
		if c.Auth.Token.TTL <= 0 {
			errs = append(errs, fmt.Errorf("auth.token.ttl must be > 0, got %v", c.Auth.Token.TTL))
		}
	}

	if c.Auth.FailureLimit < 0 {
		errs = append(errs, fmt.Errorf("auth.failure_limit must be >= 0, got %d", c.Auth.FailureLimit))
	}

	for i, p := range c.Auth.ExcludedPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("auth.excluded_paths[%d] must start with \"/\", got %q", i, p))
		}
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
