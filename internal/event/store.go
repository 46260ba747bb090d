package event

import (
	"context"

	"github.com/google/uuid"
)

// Store abstracts event persistence so the service stays testable against the
// in-memory implementation.
type Store interface {
	Insert(ctx context.Context, ev *Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Event, error)
	Update(ctx context.Context, ev *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}
