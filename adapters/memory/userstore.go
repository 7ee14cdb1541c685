// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/artpar/schemawire/domain/user"
	"github.com/artpar/schemawire/ports"
)

// UserStore is an in-memory implementation of ports.UserStore. IDs are
// assigned monotonically under the write lock, so users stays ordered by ID.
type UserStore struct {
	mu         sync.RWMutex
	users      []user.User
	byID       map[uint64]int    // ID -> index into users
	byUsername map[string]uint64 // lowercased username -> ID
	nextID     uint64
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[uint64]int),
		byUsername: make(map[string]uint64),
	}
}

// Create stores a new user and returns it with its assigned ID.
func (s *UserStore) Create(ctx context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(u.Username)
	if _, exists := s.byUsername[lowered]; exists {
		return user.User{}, ports.ErrDuplicate
	}

	s.nextID++
	u.ID = s.nextID
	stored := clone(u)

	s.users = append(s.users, stored)
	s.byID[u.ID] = len(s.users) - 1
	s.byUsername[lowered] = u.ID
	return clone(stored), nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id uint64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return user.User{}, ports.ErrNotFound
	}
	return clone(s.users[idx]), nil
}

// List returns users ordered by ID. limit zero means no limit.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.users) {
		return []user.User{}, nil
	}
	window := s.users[offset:]
	if limit > 0 && limit < len(window) {
		window = window[:limit]
	}
	out := make([]user.User, len(window))
	for i, u := range window {
		out[i] = clone(u)
	}
	return out, nil
}

// Count reports how many users the store holds.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// clone deep-copies the slice and pointer fields so store contents never
// alias caller memory.
func clone(u user.User) user.User {
	if u.Roles != nil {
		roles := make([]user.Role, len(u.Roles))
		copy(roles, u.Roles)
		u.Roles = roles
	}
	if u.Preferences != nil {
		prefs := *u.Preferences
		if prefs.LastLoginAt != nil {
			at := *prefs.LastLoginAt
			prefs.LastLoginAt = &at
		}
		u.Preferences = &prefs
	}
	return u
}

var _ ports.UserStore = (*UserStore)(nil)
