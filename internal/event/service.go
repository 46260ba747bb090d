package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// CreateRequest carries the fields an organizer submits when opening an
// event.
type CreateRequest struct {
	Name                string
	Description         string
	Location            string
	StartAt             time.Time
	EndAt               time.Time
	IPAllowList         []string
	AllowedEmailDomains []string
}

// Service owns event lifecycle operations. Authorization is two-layered: the
// router only admits organizer/admin tokens, and the service re-checks
// ownership for mutations.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create validates and persists a new event owned by the calling user.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Event, error) {
	creatorID := requestcontext.UserID(ctx)
	if creatorID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event name is required")
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() || !req.EndAt.After(req.StartAt) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event window must have start_at before end_at")
	}

	ev := &Event{
		ID:                  uuid.New(),
		CreatorID:           creatorID,
		Name:                req.Name,
		Description:         req.Description,
		Location:            req.Location,
		StartAt:             req.StartAt,
		EndAt:               req.EndAt,
		IPAllowList:         NormalizeIPList(req.IPAllowList),
		AllowedEmailDomains: NormalizeDomains(req.AllowedEmailDomains),
		CreatedAt:           requestcontext.Now(ctx),
	}
	if err := s.store.Insert(ctx, ev); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create event", err)
	}

	s.logger.InfoContext(ctx, "event created",
		"event_id", ev.ID,
		"creator_id", creatorID,
		"ip_allow_list_entries", len(ev.IPAllowList),
		"allowed_email_domains", len(ev.AllowedEmailDomains),
	)
	return ev, nil
}

// Get returns an event by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load event", err)
	}
	return ev, nil
}

// ListMine returns events created by the calling user.
func (s *Service) ListMine(ctx context.Context) ([]*Event, error) {
	creatorID := requestcontext.UserID(ctx)
	if creatorID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	events, err := s.store.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list events", err)
	}
	return events, nil
}

// UpdatePolicy replaces an event's allow lists and window. Only the creator
// or an admin may mutate an event.
func (s *Service) UpdatePolicy(ctx context.Context, id uuid.UUID, req CreateRequest) (*Event, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, ev); err != nil {
		return nil, err
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() || !req.EndAt.After(req.StartAt) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event window must have start_at before end_at")
	}

	if req.Name != "" {
		ev.Name = req.Name
	}
	ev.Description = req.Description
	ev.Location = req.Location
	ev.StartAt = req.StartAt
	ev.EndAt = req.EndAt
	ev.IPAllowList = NormalizeIPList(req.IPAllowList)
	ev.AllowedEmailDomains = NormalizeDomains(req.AllowedEmailDomains)

	if err := s.store.Update(ctx, ev); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update event", err)
	}
	return ev, nil
}

// Delete removes an event and, through the schema's cascade, its attendance
// records.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(ctx, ev); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete event", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}

// CreatorOf resolves the creator of an event. It surfaces store sentinels
// unchanged so callers can map sentinel.ErrNotFound themselves.
func (s *Service) CreatorOf(ctx context.Context, id uuid.UUID) (string, error) {
	ev, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return ev.CreatorID, nil
}

func (s *Service) requireOwnership(ctx context.Context, ev *Event) error {
	userID := requestcontext.UserID(ctx)
	role := requestcontext.UserRole(ctx)
	if ev.CreatorID != userID && role != "admin" {
		return dErrors.New(dErrors.CodeForbidden, "not the event creator")
	}
	return nil
}
