// Package auth defines the pluggable authentication contract for basicgate.
//
// A Scheme answers one question: which Principal made this request? It
// never returns an error to its caller. Malformed or missing credentials
// yield a nil Principal and the HTTP layer decides the response code.
// Concrete schemes live in sub-packages (basic, token) and embed Base for
// the shared path-exclusion and header helpers.
//
// Schemes are composed with a chain-of-responsibility using three-outcome
// voting: each authenticator returns Yes (principal found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware. Paths matching the exclusion
// patterns skip the chain entirely, and repeated failures from one client
// can be throttled with a FailureLimiter.
package auth
