package auth

import (
	"context"
	"strings"
	"sync"

	"rollcall/pkg/platform/sentinel"
)

// MemoryStore keeps accounts in a map keyed by lowercased email.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

func (s *MemoryStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := s.users[key]; exists {
		return sentinel.ErrConflict
	}
	cloned := *user
	s.users[key] = &cloned
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cloned := *user
	return &cloned, nil
}
