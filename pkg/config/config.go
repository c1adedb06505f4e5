// Package config provides unified configuration for the basicgate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (BASICGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Auth types.
const (
	AuthNone  = "none"
	AuthBasic = "basic"
	AuthToken = "token"
	AuthChain = "chain"
)

// Config holds all configuration for the basicgate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Log           LogConfig           `yaml:"log"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LogConfig holds logging settings. BASICGATE_LOG_LEVEL and BASICGATE_DEBUG
// take precedence, see package debug.
type LogConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated categories
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig holds user store settings.
type StorageConfig struct {
	Type      string         `yaml:"type"`       // "memory" or "postgres", default: "memory"
	UsersFile string         `yaml:"users_file"` // optional seed file for the memory store
	Postgres  PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type          string      `yaml:"type"`           // "none", "basic", "token", "chain", default: "basic"
	ExcludedPaths []string    `yaml:"excluded_paths"` // default: auth.DefaultExcludedPaths
	FailureLimit  int         `yaml:"failure_limit"`  // failed attempts per client per minute, 0 disables
	Token         TokenConfig `yaml:"token"`
}

// TokenConfig holds bearer token settings for type=token and type=chain.
type TokenConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	TTL        time.Duration `yaml:"ttl"`         // default: 1h
	Issuer     string        `yaml:"issuer"`      // default: "basicgate"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Type: AuthBasic,
			Token: TokenConfig{
				TTL:    time.Hour,
				Issuer: "basicgate",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// UsesToken reports whether the bearer token scheme is configured.
func (a AuthConfig) UsesToken() bool {
	return a.Type == AuthToken || a.Type == AuthChain
}

// UsesBasic reports whether the Basic scheme is configured.
func (a AuthConfig) UsesBasic() bool {
	return a.Type == AuthBasic || a.Type == AuthChain
}
