package auth

import (
	"context"
	"net/http"
	"strings"
)

// AuthorizationHeader is the only header a scheme reads credentials from.
const AuthorizationHeader = "Authorization"

// Request is the part of an incoming request a scheme is allowed to see.
type Request interface {
	// GetHeader returns the named header and whether it was present.
	GetHeader(name string) (string, bool)
}

// Principal is an identity record owned by a user store. Schemes never
// construct or mutate principals; they look them up and check a password.
type Principal interface {
	ID() string
	Email() string

	// IsValidPassword reports whether candidate matches the stored password.
	// Implementations return false for malformed stored state.
	IsValidPassword(candidate string) bool
}

// PrincipalStore finds principals whose attribute name equals value.
// Candidates are returned in the store's order.
type PrincipalStore interface {
	FindByAttribute(ctx context.Context, name, value string) ([]Principal, error)
}

// PasswordUpgrader is implemented by stores that replace outdated password
// hashes once a scheme has verified the plain password. Failures are the
// store's to log; authentication has already succeeded.
type PasswordUpgrader interface {
	UpgradePassword(ctx context.Context, p Principal, plain string)
}

// Scheme determines who made a request. A nil Principal means the request
// is unauthenticated; schemes never return an error to their caller.
type Scheme interface {
	Name() string
	CurrentPrincipal(ctx context.Context, r Request) Principal
}

// Base holds the behavior shared by every scheme. Concrete schemes embed it
// and override CurrentPrincipal.
type Base struct{}

// RequiresAuth reports whether path needs authentication given the excluded
// patterns. See RequiresAuth.
func (Base) RequiresAuth(path string, excluded []string) bool {
	return RequiresAuth(path, excluded)
}

// HeaderValue returns the raw Authorization header. See HeaderValue.
func (Base) HeaderValue(r Request) (string, bool) {
	return HeaderValue(r)
}

// CurrentPrincipal returns nil.
func (Base) CurrentPrincipal(context.Context, Request) Principal {
	return nil
}

// RequiresAuth returns false only when path matches one of the excluded
// patterns. A pattern matches exactly, ignoring a single trailing slash on
// either side, or by prefix when it ends in '*'. An empty path or an empty
// pattern list always requires authentication.
func RequiresAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}

	normalized := strings.TrimSuffix(path, "/")
	for _, pattern := range excluded {
		if pattern == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return false
			}
			continue
		}
		if normalized == strings.TrimSuffix(pattern, "/") {
			return false
		}
	}
	return true
}

// HeaderValue returns the raw Authorization header of r, or false when r is
// nil or the header is absent.
func HeaderValue(r Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.GetHeader(AuthorizationHeader)
}

// httpRequest adapts *http.Request to Request.
type httpRequest struct {
	r *http.Request
}

// FromHTTP wraps r. A nil r yields a nil Request.
func FromHTTP(r *http.Request) Request {
	if r == nil {
		return nil
	}
	return httpRequest{r: r}
}

func (h httpRequest) GetHeader(name string) (string, bool) {
	values, ok := h.r.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
