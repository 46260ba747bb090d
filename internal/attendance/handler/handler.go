package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rollcall/internal/attendance"
	"rollcall/internal/audit"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the interface for attendance review operations.
type Service interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*attendance.Record, error)
	Review(ctx context.Context, in attendance.ReviewInput) (*attendance.Record, error)
}

// AuditReader exposes the organizer-facing trail.
type AuditReader interface {
	ListByEventID(ctx context.Context, eventID string) ([]audit.Event, error)
}

// Handler wires organizer attendance endpoints to the attendance service.
type Handler struct {
	service Service
	trail   AuditReader
	logger  *slog.Logger
}

func New(service Service, trail AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		trail:   trail,
		logger:  logger,
	}
}

// Register mounts attendance endpoints on the router. The router guards them
// with organizer-or-admin role middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events/{eventID}/attendances", h.HandleList)
	r.Get("/events/{eventID}/audit", h.HandleAuditTrail)
	r.Post("/attendances/{recordID}/review", h.HandleReview)
}

// HandleList handles GET /events/{eventID}/attendances requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	records, err := h.service.ListByEvent(ctx, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleAuditTrail handles GET /events/{eventID}/audit requests. Listing goes
// through the service's ownership check first.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	if _, err := h.service.ListByEvent(ctx, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.trail.ListByEventID(ctx, eventID.String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "list audit trail", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// HandleReview handles POST /attendances/{recordID}/review requests.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record ID"))
		return
	}

	req, ok := httputil.Decode[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Decision != "approve" && req.Decision != "reject" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, `decision must be "approve" or "reject"`))
		return
	}

	record, err := h.service.Review(ctx, attendance.ReviewInput{
		RecordID: recordID,
		Approve:  req.Decision == "approve",
		Notes:    req.Notes,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "attendance review failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}
