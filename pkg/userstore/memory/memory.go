// Package memory provides an in-memory userstore.Repository for tests and
// small deployments. Users are kept in insertion order and lost when the
// process restarts unless seeded from a file with LoadFile.
package memory

import (
	"context"
	"sync"

	"github.com/rhuss/basicgate/pkg/userstore"
)

// Store is an in-memory Repository.
type Store struct {
	mu    sync.RWMutex
	users []*userstore.User // insertion order
	index map[string]int    // id -> position in users
}

// Ensure Store implements userstore.Repository at compile time.
var _ userstore.Repository = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Backend returns "memory".
func (s *Store) Backend() string { return "memory" }

// FindByAttribute returns copies of the users whose attribute matches value.
func (s *Store) FindByAttribute(_ context.Context, name, value string) ([]*userstore.User, error) {
	if !userstore.IsSearchable(name) {
		return nil, userstore.ErrUnknownAttribute
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*userstore.User
	for _, u := range s.users {
		v, _ := u.Attribute(name)
		if v == value {
			result = append(result, u.Clone())
		}
	}
	return result, nil
}

// Get returns a copy of the user with the given ID.
func (s *Store) Get(_ context.Context, id string) (*userstore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return s.users[i].Clone(), nil
}

// List returns copies of all users in insertion order.
func (s *Store) List(_ context.Context) ([]*userstore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*userstore.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u.Clone())
	}
	return result, nil
}

// Count returns the number of stored users.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Save stores a copy of u. Replacing an existing user keeps its position.
func (s *Store) Save(_ context.Context, u *userstore.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[u.UserID]; ok {
		s.users[i] = u.Clone()
		return nil
	}
	s.index[u.UserID] = len(s.users)
	s.users = append(s.users, u.Clone())
	return nil
}

// Delete removes the user with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return userstore.ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.users); j++ {
		s.index[s.users[j].UserID] = j
	}
	return nil
}
