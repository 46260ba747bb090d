package event

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rollcall/pkg/platform/sentinel"
)

// MemoryStore keeps events in a map. Used for local development and unit
// tests; it intentionally favors clarity over performance.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[uuid.UUID]*Event)}
}

func (s *MemoryStore) Insert(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[ev.ID]; exists {
		return sentinel.ErrConflict
	}
	cloned := *ev
	s.events[ev.ID] = &cloned
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cloned := *ev
	return &cloned, nil
}

func (s *MemoryStore) ListByCreator(_ context.Context, creatorID string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Event
	for _, ev := range s.events {
		if ev.CreatorID == creatorID {
			cloned := *ev
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cloned := *ev
	s.events[ev.ID] = &cloned
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, id)
	return nil
}
