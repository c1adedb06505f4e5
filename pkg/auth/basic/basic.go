// Package basic implements HTTP Basic authentication as an auth.Scheme.
//
// A request is authenticated by a five-stage pipeline over the
// Authorization header: extract the token after "Basic ", decode it from
// base64 into UTF-8 text, split it on the first colon, look the username up
// by email in the principal store, and return the first candidate whose
// password check succeeds. Each stage is total: malformed input yields the
// "none" sentinel instead of an error, so CurrentPrincipal never fails.
package basic

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/debug"
	"github.com/rhuss/basicgate/pkg/observability"
)

// Prefix is the case-sensitive scheme token, including its single space.
const Prefix = "Basic "

// SchemeName identifies this scheme in results and metrics.
const SchemeName = "basic"

// EmailAttribute is the store attribute usernames are matched against.
const EmailAttribute = "email"

// Scheme authenticates requests carrying Basic credentials.
type Scheme struct {
	auth.Base
	store auth.PrincipalStore
}

var (
	_ auth.Scheme        = (*Scheme)(nil)
	_ auth.Authenticator = (*Scheme)(nil)
)

// New creates a Basic scheme resolving principals from store.
func New(store auth.PrincipalStore) *Scheme {
	return &Scheme{store: store}
}

// Name returns "basic".
func (s *Scheme) Name() string { return SchemeName }

// ExtractToken returns the part of header following "Basic ". It returns
// false when the header is absent or lacks the exact prefix.
func ExtractToken(header string, ok bool) (string, bool) {
	if !ok || !strings.HasPrefix(header, Prefix) {
		return "", false
	}
	return header[len(Prefix):], true
}

// DecodeToken base64-decodes token and returns it as text. It returns
// false for an absent token, invalid base64, or bytes that are not UTF-8.
func DecodeToken(token string, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// SplitCredentials splits decoded at its first colon into username and
// password. The password may itself contain colons. Empty parts are kept.
func SplitCredentials(decoded string, ok bool) (username, password string, found bool) {
	if !ok {
		return "", "", false
	}
	return strings.Cut(decoded, ":")
}

// ResolvePrincipal returns the first principal with the given email whose
// password check accepts password. Store failures yield nil.
func (s *Scheme) ResolvePrincipal(ctx context.Context, username, password string) auth.Principal {
	p, _ := s.resolve(ctx, username, password)
	return p
}

// CurrentPrincipal runs the full pipeline over the request's Authorization
// header. It returns nil for any missing or invalid input.
func (s *Scheme) CurrentPrincipal(ctx context.Context, r auth.Request) auth.Principal {
	p, _ := s.Evaluate(ctx, r)
	return p
}

// Evaluate behaves like CurrentPrincipal but also reports why no principal
// was found. The returned error wraps one of the auth failure kinds and is
// meant for logs and metrics, not for clients.
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

	token, ok := ExtractToken(header, ok)
	if !ok {
		return nil, auth.ErrMalformedHeader
	}

	decoded, ok := DecodeToken(token, ok)
	if !ok {
		return nil, auth.ErrDecodeFailure
	}

	username, password, ok := SplitCredentials(decoded, ok)
	if !ok {
		return nil, auth.ErrMalformedCredentials
	}

	return s.resolve(ctx, username, password)
}

func (s *Scheme) resolve(ctx context.Context, username, password string) (auth.Principal, error) {
	if s.store == nil {
		return nil, auth.ErrLookupFailure
	}

	candidates, err := s.store.FindByAttribute(ctx, EmailAttribute, username)
	if err != nil {
		slog.Warn("principal lookup failed", "scheme", SchemeName, "error", err)
		return nil, fmt.Errorf("%w: %v", auth.ErrLookupFailure, err)
	}

	for _, candidate := range candidates {
		if candidate != nil && candidate.IsValidPassword(password) {
			if up, ok := s.store.(auth.PasswordUpgrader); ok {
				up.UpgradePassword(ctx, candidate, password)
			}
			return candidate, nil
		}
	}

	debug.Log("auth", "no candidate accepted the password", "candidates", len(candidates))
	return nil, auth.ErrAuthenticationFailure
}

// Authenticate lets the scheme vote in an auth.AuthChain. It abstains when
// the request carries no Basic credentials so other schemes get a chance.
func (s *Scheme) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	req := auth.FromHTTP(r)
	if _, ok := ExtractToken(s.HeaderValue(req)); !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	p, err := s.Evaluate(ctx, req)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Scheme: SchemeName, Err: err}
	}
	return auth.AuthResult{Decision: auth.Yes, Scheme: SchemeName, Principal: p}
}
