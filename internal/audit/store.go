package audit

import "context"

// Store is an append-only event sink with read access for the organizer
// trail endpoint.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEventID(ctx context.Context, eventID string) ([]Event, error)
}
