package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rollcall/internal/event"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
)

// Service defines the interface for event lifecycle operations.
type Service interface {
	Create(ctx context.Context, req event.CreateRequest) (*event.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
	ListMine(ctx context.Context) ([]*event.Event, error)
	UpdatePolicy(ctx context.Context, id uuid.UUID, req event.CreateRequest) (*event.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler wires event endpoints to the event service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts event endpoints on the router. The router guards mutations
// with organizer-or-admin role middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.HandleCreate)
	r.Get("/events", h.HandleListMine)
	r.Get("/events/{eventID}", h.HandleGet)
	r.Put("/events/{eventID}", h.HandleUpdate)
	r.Delete("/events/{eventID}", h.HandleDelete)
}

// HandleCreate handles POST /events requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[EventRequest](w, r, h.logger)
	if !ok {
		return
	}

	ev, err := h.service.Create(r.Context(), req.toDomain())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromEvent(ev))
}

// HandleListMine handles GET /events requests.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleGet handles GET /events/{eventID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(ev))
}

// HandleUpdate handles PUT /events/{eventID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	req, ok := httputil.Decode[EventRequest](w, r, h.logger)
	if !ok {
		return
	}

	ev, err := h.service.UpdatePolicy(r.Context(), id, req.toDomain())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(ev))
}

// HandleDelete handles DELETE /events/{eventID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
