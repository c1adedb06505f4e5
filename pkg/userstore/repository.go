package userstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/debug"
	"github.com/rhuss/basicgate/pkg/observability"
	"github.com/rhuss/basicgate/pkg/password"
)

// Repository persists users. Implementations are safe for concurrent use.
type Repository interface {
	// FindByAttribute returns the users whose attribute name equals value,
	// oldest first.
	FindByAttribute(ctx context.Context, name, value string) ([]*User, error)

	// Get returns a user by ID or ErrNotFound.
	Get(ctx context.Context, id string) (*User, error)

	// List returns every user, oldest first.
	List(ctx context.Context) ([]*User, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)

	// Save inserts u or replaces the user with the same ID.
	Save(ctx context.Context, u *User) error

	// Delete removes a user by ID or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Backend names the implementation for logs and metrics.
	Backend() string
}

// Principals exposes repo as an auth.PrincipalStore. The store also
// implements auth.PasswordUpgrader: legacy and low-cost hashes are replaced
// with a fresh bcrypt hash after a verified login.
func Principals(repo Repository) auth.PrincipalStore {
	return principalStore{repo: repo}
}

type principalStore struct {
	repo Repository
}

var _ auth.PasswordUpgrader = principalStore{}

func (p principalStore) FindByAttribute(ctx context.Context, name, value string) ([]auth.Principal, error) {
	users, err := p.repo.FindByAttribute(ctx, name, value)
	if err != nil {
		observability.StoreLookupsTotal.WithLabelValues(p.repo.Backend(), "error").Inc()
		return nil, err
	}
	observability.StoreLookupsTotal.WithLabelValues(p.repo.Backend(), "ok").Inc()
	debug.Log("store", "attribute lookup", "backend", p.repo.Backend(), "attribute", name, "matches", len(users))

	principals := make([]auth.Principal, 0, len(users))
	for _, u := range users {
		principals = append(principals, u)
	}
	return principals, nil
}

func (p principalStore) UpgradePassword(ctx context.Context, principal auth.Principal, plain string) {
	u, ok := principal.(*User)
	if !ok || u == nil || !password.NeedsRehash(u.PasswordHash) {
		return
	}

	hash, err := password.Hash(plain)
	if err != nil {
		slog.Warn("password upgrade skipped", "backend", p.repo.Backend(), "id", u.UserID, "error", err)
		return
	}

	upgraded := u.Clone()
	upgraded.PasswordHash = hash
	upgraded.UpdatedAt = time.Now().UTC()
	if err := p.repo.Save(ctx, upgraded); err != nil {
		slog.Warn("password upgrade failed", "backend", p.repo.Backend(), "id", u.UserID, "error", err)
		return
	}
	debug.Log("store", "password hash upgraded", "backend", p.repo.Backend(), "id", u.UserID)
}
