// Package transport provides the net/http plumbing shared by basicgate's
// HTTP surface: a middleware chain, request IDs, panic recovery, access
// logging, and JSON response helpers.
//
// # Middleware
//
// Middleware wraps an http.Handler. Chain(a, b, c) produces a(b(c(h))), so
// the first middleware is the outermost. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID), and structured logging
// via log/slog.
//
// # Errors
//
// Error bodies are JSON objects of the form {"error": "<message>"}. Status
// code selection stays with the caller; authentication failures are always
// reported as 401 without detail.
package transport
