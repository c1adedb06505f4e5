package auth

import "errors"

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("too many failed attempts")
)

// Failure kinds reported by schemes that expose why a request did not
// authenticate. They never reach the HTTP client; every kind maps to 401.
var (
	ErrMissingHeader         = errors.New("authorization header missing")
	ErrMalformedHeader       = errors.New("malformed authorization header")
	ErrDecodeFailure         = errors.New("credentials are not valid base64 utf-8")
	ErrMalformedCredentials  = errors.New("credentials missing ':' separator")
	ErrLookupFailure         = errors.New("user store lookup failed")
	ErrAuthenticationFailure = errors.New("no principal matched the credentials")
	ErrInvalidToken          = errors.New("bearer token is invalid or expired")
)

// FailureKind returns a short label for err suitable for metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	case errors.Is(err, ErrMalformedCredentials):
		return "malformed_credentials"
	case errors.Is(err, ErrLookupFailure):
		return "lookup_failure"
	case errors.Is(err, ErrAuthenticationFailure):
		return "authentication_failure"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "other"
	}
}
