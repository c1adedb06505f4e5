package userstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/password"
)

// Searchable attributes.
const (
	AttrID        = "id"
	AttrEmail     = "email"
	AttrFirstName = "first_name"
	AttrLastName  = "last_name"
)

// User is a principal record.
type User struct {
	UserID       string    `json:"id"`
	UserEmail    string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var _ auth.Principal = (*User)(nil)

// NewUser creates a user with a fresh ID and a bcrypt hash of plain.
func NewUser(email, plain string) (*User, error) {
	if email == "" {
		return nil, ErrInvalidUser
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	now := time.Now().UTC()
	return &User{
		UserID:       uuid.NewString(),
		UserEmail:    email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ID returns the user's identifier.
func (u *User) ID() string {
	if u == nil {
		return ""
	}
	return u.UserID
}

// Email returns the user's email address.
func (u *User) Email() string {
	if u == nil {
		return ""
	}
	return u.UserEmail
}

// IsValidPassword reports whether candidate matches the stored hash.
func (u *User) IsValidPassword(candidate string) bool {
	if u == nil {
		return false
	}
	return password.Verify(u.PasswordHash, candidate)
}

// DisplayName returns "First Last", falling back to whichever name part is
// set, then to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.UserEmail
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Attribute returns the value of a searchable attribute.
func (u *User) Attribute(name string) (string, error) {
	switch name {
	case AttrID:
		return u.UserID, nil
	case AttrEmail:
		return u.UserEmail, nil
	case AttrFirstName:
		return u.FirstName, nil
	case AttrLastName:
		return u.LastName, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
}

// Clone returns a copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Validate checks that u can be stored.
func (u *User) Validate() error {
	if u == nil || strings.TrimSpace(u.UserID) == "" || strings.TrimSpace(u.UserEmail) == "" {
		return ErrInvalidUser
	}
	return nil
}

// IsSearchable reports whether name is an attribute backends can filter on.
func IsSearchable(name string) bool {
	switch name {
	case AttrID, AttrEmail, AttrFirstName, AttrLastName:
		return true
	default:
		return false
	}
}
