package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollcall/pkg/platform/sentinel"
)

// MemoryStore keeps attendance records in a map guarded by a mutex. It
// enforces the same at-most-one-valid invariant as the Postgres partial
// unique indexes so unit tests exercise the conflict path realistically.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryStore) FindByEventAndIdentity(_ context.Context, eventID uuid.UUID, keys IdentityKeys) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*Record
	for _, rec := range s.records {
		if rec.EventID != eventID {
			continue
		}
		if (keys.UserID != "" && rec.UserID == keys.UserID) ||
			(keys.FingerprintIdentity != "" && rec.FingerprintIdentity == keys.FingerprintIdentity) {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	// Most recent first keeps the pick deterministic if the invariant was
	// ever violated out-of-band.
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	cloned := *matches[0]
	return &cloned, nil
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.IsValid {
		for _, existing := range s.records {
			if existing.EventID != rec.EventID || !existing.IsValid {
				continue
			}
			if existing.FingerprintIdentity == rec.FingerprintIdentity {
				return sentinel.ErrConflict
			}
			if rec.UserID != "" && existing.UserID == rec.UserID {
				return sentinel.ErrConflict
			}
		}
	}
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	cloned := *rec
	s.records[rec.ID] = &cloned
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cloned := *rec
	return &cloned, nil
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.EventID == eventID {
			cloned := *rec
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateReview(_ context.Context, id uuid.UUID, status Status, notes, reviewedBy string, reviewedAt time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec.Status = status
	rec.Notes = notes
	rec.ReviewedBy = reviewedBy
	rec.ReviewedAt = &reviewedAt
	cloned := *rec
	return &cloned, nil
}
