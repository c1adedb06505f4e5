package userstore

import "errors"

// Sentinel errors for user store operations.
var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrUnknownAttribute is returned when searching by an attribute the
	// store does not index.
	ErrUnknownAttribute = errors.New("unknown user attribute")

	// ErrInvalidUser is returned when saving a user without an ID or email.
	ErrInvalidUser = errors.New("user requires id and email")
)
