package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rollcall/internal/admission"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the interface for admission operations.
type Service interface {
	Submit(ctx context.Context, sub admission.Submission) (*admission.SubmitResult, error)
}

// Handler wires the check-in endpoint to the admission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admission handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts admission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events/{eventID}/checkin", h.HandleCheckin)
}

// HandleCheckin handles POST /events/{eventID}/checkin requests. The endpoint
// is open to anonymous clients; authenticated requests take identity and
// email from the token.
func (h *Handler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event ID"))
		return
	}

	req, ok := httputil.Decode[CheckinRequest](w, r, h.logger)
	if !ok {
		return
	}

	email := requestcontext.UserEmail(ctx)
	if email == "" {
		email = req.Email
	}

	sub := admission.Submission{
		EventID:     eventID,
		UserID:      requestcontext.UserID(ctx),
		Email:       email,
		IP:          requestcontext.ClientIP(ctx),
		UserAgent:   requestcontext.UserAgent(ctx),
		Fingerprint: req.fingerprintInput(),
	}

	result, err := h.service.Submit(ctx, sub)
	if err != nil {
		h.logger.ErrorContext(ctx, "check-in submission failed",
			"request_id", requestID,
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "check-in handled",
		"request_id", requestID,
		"event_id", eventID,
		"action", result.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, statusFor(result.Action), FromResult(result))
}

// statusFor maps the reconciler's action to an HTTP status: a fresh record is
// a creation, an overwrite a replacement, and a refusal a conflict with the
// surviving record in the body.
func statusFor(action admission.Action) int {
	switch action {
	case admission.ActionInsert:
		return http.StatusCreated
	case admission.ActionRefuse:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}
