package attendance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"rollcall/internal/audit"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/middleware/auth"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// EventReader is the slice of the event service the review flow needs to
// establish ownership.
type EventReader interface {
	CreatorOf(ctx context.Context, eventID uuid.UUID) (string, error)
}

// AuditEmitter receives trail events for organizer reviews.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	store   Store
	events  EventReader
	auditor AuditEmitter
	logger  *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithAuditEmitter(a AuditEmitter) ServiceOption {
	return func(s *Service) { s.auditor = a }
}

func NewService(store Store, events EventReader, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		events: events,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListByEvent returns every recorded attempt for an event, most recent first.
// Only the event's creator or an admin may list.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Record, error) {
	if err := s.requireOwnership(ctx, eventID); err != nil {
		return nil, err
	}
	recs, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "list attendances", err)
	}
	return recs, nil
}

type ReviewInput struct {
	RecordID uuid.UUID
	Approve  bool
	Notes    string
}

// Review records an organizer decision on a record: status, notes, reviewer,
// and review time. Any record can be reviewed, including re-reviews of
// engine-set or previously reviewed statuses. Validity is never changed here;
// the reconciler keys on IsValid, not on status.
func (s *Service) Review(ctx context.Context, in ReviewInput) (*Record, error) {
	rec, err := s.store.FindByID(ctx, in.RecordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "attendance record not found")
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "find attendance", err)
	}
	if err := s.requireOwnership(ctx, rec.EventID); err != nil {
		return nil, err
	}
	status := StatusRejected
	if in.Approve {
		status = StatusApproved
	}
	updated, err := s.store.UpdateReview(ctx, in.RecordID, status, in.Notes,
		requestcontext.UserID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "update review", err)
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Action:   audit.ActionReview,
			EventID:  rec.EventID.String(),
			RecordID: rec.ID.String(),
			ActorID:  requestcontext.UserID(ctx),
			Decision: string(status),
		})
	}

	s.logger.InfoContext(ctx, "attendance reviewed",
		"record_id", in.RecordID,
		"event_id", rec.EventID,
		"status", status,
	)
	return updated, nil
}

func (s *Service) requireOwnership(ctx context.Context, eventID uuid.UUID) error {
	if requestcontext.UserRole(ctx) == auth.RoleAdmin {
		return nil
	}
	creator, err := s.events.CreatorOf(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "event not found")
		}
		return domainerrors.Wrap(domainerrors.CodeInternal, "resolve event creator", err)
	}
	if creator != requestcontext.UserID(ctx) {
		return domainerrors.New(domainerrors.CodeForbidden, "not the event organizer")
	}
	return nil
}
