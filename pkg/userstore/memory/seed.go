package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/basicgate/pkg/password"
	"github.com/rhuss/basicgate/pkg/userstore"
)

// timestampLayout is the layout of created_at/updated_at in seed files.
const timestampLayout = "2006-01-02T15:04:05"

// seedUser is one user entry in a seed file. Exactly one of Password,
// PasswordHash or LegacyHash is expected.
type seedUser struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	LegacyHash   string `yaml:"_password"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	CreatedAt    string `yaml:"created_at"`
	UpdatedAt    string `yaml:"updated_at"`
}

// LoadFile seeds the store from a YAML or JSON file. Two layouts are
// accepted: a document with a "users" list, or an object keyed by user ID
// as written by earlier file-backed deployments. Plaintext passwords are
// hashed on load.
func (s *Store) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	entries, err := parseSeed(data)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	for i, e := range entries {
		u, err := e.toUser()
		if err != nil {
			return i, fmt.Errorf("%s: user %d: %w", path, i, err)
		}
		if err := s.Save(ctx, u); err != nil {
			return i, fmt.Errorf("%s: user %d: %w", path, i, err)
		}
	}

	slog.Info("user store seeded", "path", path, "users", len(entries))
	return len(entries), nil
}

func parseSeed(data []byte) ([]seedUser, error) {
	var doc struct {
		Users []seedUser `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Users) > 0 {
		return doc.Users, nil
	}

	var byID map[string]seedUser
	if err := yaml.Unmarshal(data, &byID); err != nil {
		return nil, err
	}
	entries := make([]seedUser, 0, len(byID))
	for id, e := range byID {
		if e.ID == "" {
			e.ID = id
		}
		entries = append(entries, e)
	}
	// Map order is random; keep the store's oldest-first contract.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt < entries[j].CreatedAt
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (e seedUser) toUser() (*userstore.User, error) {
	var u *userstore.User
	switch {
	case e.PasswordHash != "" || e.LegacyHash != "":
		hash := e.PasswordHash
		if hash == "" {
			hash = e.LegacyHash
		}
		if err := password.CheckHash(hash); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		u = &userstore.User{UserEmail: e.Email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	case e.Password != "":
		var err error
		u, err = userstore.NewUser(e.Email, e.Password)
		if err != nil {
			return nil, err
		}
	default:
		return nil, password.ErrEmpty
	}

	if e.ID != "" {
		u.UserID = e.ID
	}
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	u.FirstName = e.FirstName
	u.LastName = e.LastName
	if t, err := time.Parse(timestampLayout, e.CreatedAt); err == nil {
		u.CreatedAt = t
	}
	if t, err := time.Parse(timestampLayout, e.UpdatedAt); err == nil {
		u.UpdatedAt = t
	}
	return u, nil
}
