// Package token provides a bearer token scheme. Tokens are HS256-signed
// JWTs issued to principals that already authenticated some other way,
// typically with Basic credentials, and are resolved back to the principal
// by ID on every request.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/observability"
)

// Prefix is the case-sensitive scheme token, including its single space.
const Prefix = "Bearer "

// SchemeName identifies this scheme in results and metrics.
const SchemeName = "token"

// IDAttribute is the store attribute the subject claim is matched against.
const IDAttribute = "id"

// Leeway is the clock skew tolerated when checking expiry.
const Leeway = 30 * time.Second

// Config holds the token scheme configuration.
type Config struct {
	// Secret is the HMAC key. It must not be empty.
	Secret []byte

	// Issuer is written to and required in the iss claim. Default: "basicgate".
	Issuer string

	// TTL is the lifetime of issued tokens. Default: 1 hour.
	TTL time.Duration
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "basicgate"
	}
	if c.TTL == 0 {
		c.TTL = time.Hour
	}
}

// Claims are the registered claims plus the principal's email.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

// Scheme authenticates requests carrying a bearer token.
type Scheme struct {
	auth.Base
	config Config
	store  auth.PrincipalStore
	now    func() time.Time
}

var (
	_ auth.Scheme        = (*Scheme)(nil)
	_ auth.Authenticator = (*Scheme)(nil)
)

// New creates a token scheme resolving principals from store.
func New(cfg Config, store auth.PrincipalStore) (*Scheme, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	cfg.applyDefaults()
	return &Scheme{config: cfg, store: store, now: time.Now}, nil
}

// Name returns "token".
func (s *Scheme) Name() string { return SchemeName }

// Issue signs a token for p.
func (s *Scheme) Issue(p auth.Principal) (string, time.Time, error) {
	if p == nil || p.ID() == "" {
		return "", time.Time{}, errors.New("cannot issue a token without a principal")
	}

	now := s.now()
	expires := now.Add(s.config.TTL)
	claims := Claims{
		Email: p.Email(),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.ID(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expires),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expires, nil
}

// CurrentPrincipal resolves the principal named by the request's bearer
// token. It returns nil for any missing or invalid token.
func (s *Scheme) CurrentPrincipal(ctx context.Context, r auth.Request) auth.Principal {
	p, _ := s.Evaluate(ctx, r)
	return p
}

// Evaluate behaves like CurrentPrincipal but also reports the failure kind.
func (s *Scheme) Evaluate(ctx context.Context, r auth.Request) (auth.Principal, error) {
	p, err := s.evaluate(ctx, r)
	if err != nil {
		observability.AuthFailuresTotal.WithLabelValues(SchemeName, auth.FailureKind(err)).Inc()
	}
	return p, err
}

func (s *Scheme) evaluate(ctx context.Context, r auth.Request) (auth.Principal, error) {
	header, ok := s.HeaderValue(r)
	if !ok {
		return nil, auth.ErrMissingHeader
	}
	raw, ok := strings.CutPrefix(header, Prefix)
	if !ok || raw == "" {
		return nil, auth.ErrMalformedHeader
	}

	claims, err := s.parse(raw)
	if err != nil {
		slog.Debug("bearer token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	if s.store == nil {
		return nil, auth.ErrLookupFailure
	}
	candidates, err := s.store.FindByAttribute(ctx, IDAttribute, claims.Subject)
	if err != nil {
		slog.Warn("principal lookup failed", "scheme", SchemeName, "error", err)
		return nil, fmt.Errorf("%w: %v", auth.ErrLookupFailure, err)
	}
	for _, candidate := range candidates {
		if candidate != nil {
			return candidate, nil
		}
	}
	return nil, auth.ErrAuthenticationFailure
}

func (s *Scheme) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.config.Secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.config.Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(Leeway),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Authenticate lets the scheme vote in an auth.AuthChain. It abstains when
// the request carries no bearer token.
func (s *Scheme) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	req := auth.FromHTTP(r)
	header, ok := s.HeaderValue(req)
	if !ok || !strings.HasPrefix(header, Prefix) {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	p, err := s.Evaluate(ctx, req)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Scheme: SchemeName, Err: err}
	}
	return auth.AuthResult{Decision: auth.Yes, Scheme: SchemeName, Principal: p}
}
