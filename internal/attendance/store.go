package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store abstracts attendance persistence. Implementations must enforce the
// at-most-one-valid invariant per (event, identity) with a uniqueness
// constraint and return sentinel.ErrConflict when a write loses that race;
// the admission service maps the conflict back to a refusal.
type Store interface {
	// FindByEventAndIdentity returns the most recent record for the event
	// matching either identity key, or sentinel.ErrNotFound.
	FindByEventAndIdentity(ctx context.Context, eventID uuid.UUID, keys IdentityKeys) (*Record, error)
	Insert(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Record, error)
	UpdateReview(ctx context.Context, id uuid.UUID, status Status, notes, reviewedBy string, reviewedAt time.Time) (*Record, error)
}
