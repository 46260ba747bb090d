package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rollcall/internal/admission/metrics"
	"rollcall/internal/attendance"
	"rollcall/internal/audit"
	"rollcall/internal/event"
	"rollcall/internal/fingerprint"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

var tracer = otel.Tracer("admission")

// EventSource resolves the event a submission targets.
type EventSource interface {
	Get(ctx context.Context, id uuid.UUID) (*event.Event, error)
}

// AuditEmitter receives trail events. Emission must not block submission
// handling.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service runs the full admission pipeline for a check-in submission:
// activity-window precondition, identity derivation, policy evaluation,
// reconciliation against the prior record, and persistence.
type Service struct {
	events       EventSource
	records      attendance.Store
	fingerprints *fingerprint.Service
	auditor      AuditEmitter
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithAuditEmitter(a AuditEmitter) ServiceOption {
	return func(s *Service) { s.auditor = a }
}

func NewService(events EventSource, records attendance.Store, fingerprints *fingerprint.Service, opts ...ServiceOption) *Service {
	s := &Service{
		events:       events,
		records:      records,
		fingerprints: fingerprints,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit processes one check-in attempt.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "Admission.Service.Submit")
	defer span.End()
	start := time.Now()

	ev, err := s.events.Get(ctx, sub.EventID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	policy := ev.AccessPolicy()

	// Precondition, not an admission rule: outside the window no attempt is
	// evaluated or recorded.
	now := requestcontext.Now(ctx)
	if !policy.WindowContains(now) {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "event is not open for check-in")
	}

	identity, evaluation, err := s.identify(sub, policy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	prior, err := s.findPrior(ctx, sub.EventID, attendance.IdentityKeys{
		UserID:              sub.UserID,
		FingerprintIdentity: identity,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resolution := Reconcile(prior)
	span.SetAttributes(
		attribute.String("event_id", sub.EventID.String()),
		attribute.String("action", string(resolution.Action)),
	)

	result, err := s.apply(ctx, sub, identity, evaluation, resolution, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.IncrementSubmission(string(result.Action), string(result.Reason))
	s.metrics.ObserveSubmitLatency(time.Since(start))
	s.logger.InfoContext(ctx, "submission reconciled",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", sub.EventID,
		"action", result.Action,
		"status", recordStatus(result.Record),
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// identify derives the deduplication identity and the policy evaluation. A
// fingerprint that fails authentication short-circuits the policy rules.
func (s *Service) identify(sub Submission, policy event.AccessPolicy) (string, Evaluation, error) {
	if sub.Fingerprint == nil {
		if sub.UserAgent == "" {
			return "", Evaluation{}, domainerrors.New(domainerrors.CodeBadRequest, "fingerprint or user agent is required")
		}
		s.metrics.IncrementFingerprintCheck("legacy")
		return fingerprint.LegacyIdentity(sub.UserAgent, sub.IP), EvaluatePolicy(policy, sub.Email, sub.IP), nil
	}

	identity, ok := s.fingerprints.Authenticate(sub.Fingerprint.Payload, sub.Fingerprint.Hash)
	if identity == "" {
		return "", Evaluation{}, domainerrors.New(domainerrors.CodeBadRequest, "fingerprint payload is not valid JSON")
	}
	if !ok {
		s.metrics.IncrementFingerprintCheck("tampered")
		return identity, TamperedEvaluation(), nil
	}
	s.metrics.IncrementFingerprintCheck("verified")
	return identity, EvaluatePolicy(policy, sub.Email, sub.IP), nil
}

func (s *Service) findPrior(ctx context.Context, eventID uuid.UUID, keys attendance.IdentityKeys) (*attendance.Record, error) {
	prior, err := s.records.FindByEventAndIdentity(ctx, eventID, keys)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "load prior record", err)
	}
	return prior, nil
}

// apply executes the reconciler's verdict against the store. An insert losing
// the uniqueness race to a concurrent valid submission is folded into a
// refusal, the same outcome as having seen that record as prior.
func (s *Service) apply(ctx context.Context, sub Submission, identity string, evaluation Evaluation, resolution Resolution, now time.Time) (*SubmitResult, error) {
	if resolution.Action == ActionRefuse {
		s.emitAudit(ctx, audit.ActionCheckinRefuse, sub, resolution.Prior.ID, identity, "", ReasonDuplicateValid)
		return &SubmitResult{Action: ActionRefuse, Record: resolution.Prior, Reason: ReasonDuplicateValid}, nil
	}

	if resolution.Action == ActionOverwrite {
		if err := s.records.Delete(ctx, resolution.Prior.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "delete prior record", err)
		}
	}

	rec := &attendance.Record{
		ID:                  uuid.New(),
		EventID:             sub.EventID,
		UserID:              sub.UserID,
		Email:               sub.Email,
		IP:                  sub.IP,
		FingerprintIdentity: identity,
		Device:              fingerprint.ParseUserAgent(sub.UserAgent),
		Status:              evaluation.Status,
		IsValid:             evaluation.IsValid,
		CreatedAt:           now,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			winner, findErr := s.findPrior(ctx, sub.EventID, attendance.IdentityKeys{
				UserID:              sub.UserID,
				FingerprintIdentity: identity,
			})
			if findErr != nil {
				return nil, findErr
			}
			s.emitAudit(ctx, audit.ActionCheckinRefuse, sub, recordID(winner), identity, "", ReasonDuplicateValid)
			return &SubmitResult{Action: ActionRefuse, Record: winner, Reason: ReasonDuplicateValid}, nil
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "insert record", err)
	}

	action := audit.ActionCheckinInsert
	if resolution.Action == ActionOverwrite {
		action = audit.ActionCheckinOverwrite
	}
	if !evaluation.IsValid {
		action = audit.ActionCheckinReject
	}
	s.emitAudit(ctx, action, sub, rec.ID, identity, string(rec.Status), evaluation.Reason)

	return &SubmitResult{Action: resolution.Action, Record: rec, Reason: evaluation.Reason}, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, sub Submission, recID uuid.UUID, identity, decision string, reason Reason) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		EventID:     sub.EventID.String(),
		RecordID:    recID.String(),
		ActorID:     sub.UserID,
		Decision:    decision,
		Reason:      string(reason),
		IdentityKey: identity,
		IP:          sub.IP,
	})
}

func recordStatus(rec *attendance.Record) string {
	if rec == nil {
		return ""
	}
	return string(rec.Status)
}

func recordID(rec *attendance.Record) uuid.UUID {
	if rec == nil {
		return uuid.Nil
	}
	return rec.ID
}
