package admission

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/attendance"
	"rollcall/internal/audit"
	"rollcall/internal/event"
	"rollcall/internal/fingerprint"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

const testSecret = "test-secret"

type captureAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, ev audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureAuditor) last() audit.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return audit.Event{}
	}
	return c.events[len(c.events)-1]
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	events  *event.MemoryStore
	records *attendance.MemoryStore
	auditor *captureAuditor
	svc     *Service
	eventID uuid.UUID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.events = event.NewMemoryStore()
	s.records = attendance.NewMemoryStore()
	s.auditor = &captureAuditor{}
	s.svc = NewService(
		eventSource{store: s.events},
		s.records,
		fingerprint.NewService(testSecret),
		WithAuditEmitter(s.auditor),
	)

	s.eventID = uuid.New()
	s.Require().NoError(s.events.Insert(s.ctx, &event.Event{
		ID:                  s.eventID,
		CreatorID:           "organizer-1",
		Name:                "orientation day",
		StartAt:             s.now.Add(-time.Hour),
		EndAt:               s.now.Add(time.Hour),
		AllowedEmailDomains: []string{"ou.edu.vn"},
	}))
}

// eventSource adapts the raw store to the service port, mapping the sentinel
// the way the event service does.
type eventSource struct {
	store *event.MemoryStore
}

func (e eventSource) Get(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	ev, err := e.store.FindByID(ctx, id)
	if err != nil {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "event not found")
	}
	return ev, nil
}

func (s *ServiceSuite) sign(payload json.RawMessage) string {
	canonical, err := fingerprint.Canonicalize(payload)
	s.Require().NoError(err)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *ServiceSuite) submission(mutate func(*Submission)) Submission {
	payload := json.RawMessage(`{"screen":{"width":1920,"height":1080},"platform":"MacIntel"}`)
	sub := Submission{
		EventID:   s.eventID,
		UserID:    "user-1",
		Email:     "sv@ou.edu.vn",
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Fingerprint: &FingerprintInput{
			Payload: payload,
			Hash:    s.sign(payload),
		},
	}
	if mutate != nil {
		mutate(&sub)
	}
	return sub
}

func (s *ServiceSuite) TestFreshSubmissionInserts() {
	result, err := s.svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)

	s.Equal(ActionInsert, result.Action)
	s.Empty(result.Reason)
	s.Require().NotNil(result.Record)
	s.Equal(attendance.StatusApproved, result.Record.Status)
	s.True(result.Record.IsValid)
	s.Equal("Chrome on Mac OS X", result.Record.Device)
	s.Len(result.Record.FingerprintIdentity, 64)

	stored, err := s.records.FindByID(s.ctx, result.Record.ID)
	s.Require().NoError(err)
	s.True(stored.IsValid)

	s.Equal(audit.ActionCheckinInsert, s.auditor.last().Action)
	s.Equal("approved", s.auditor.last().Decision)
}

func (s *ServiceSuite) TestRejectedThenFixedOverwrites() {
	// First attempt from a personal mailbox is recorded as rejected.
	first, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.Email = "sv@gmail.com"
	}))
	s.Require().NoError(err)
	s.Equal(ActionInsert, first.Action)
	s.Equal(ReasonEmailDomain, first.Reason)
	s.False(first.Record.IsValid)
	s.Equal(attendance.StatusRejected, first.Record.Status)
	s.Equal(audit.ActionCheckinReject, s.auditor.last().Action)

	// Same device retries with the university mailbox: the rejected record
	// is replaced, not duplicated.
	second, err := s.svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)
	s.Equal(ActionOverwrite, second.Action)
	s.True(second.Record.IsValid)
	s.NotEqual(first.Record.ID, second.Record.ID)

	_, err = s.records.FindByID(s.ctx, first.Record.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	recs, err := s.records.ListByEvent(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Len(recs, 1)
	s.Equal(audit.ActionCheckinOverwrite, s.auditor.last().Action)
}

func (s *ServiceSuite) TestDuplicateValidRefuses() {
	first, err := s.svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)
	s.True(first.Record.IsValid)

	second, err := s.svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)
	s.Equal(ActionRefuse, second.Action)
	s.Equal(ReasonDuplicateValid, second.Reason)
	s.Equal(first.Record.ID, second.Record.ID)

	recs, err := s.records.ListByEvent(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Len(recs, 1)
	s.Equal(audit.ActionCheckinRefuse, s.auditor.last().Action)
}

func (s *ServiceSuite) TestSameUserDifferentDeviceRefused() {
	_, err := s.svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)

	other := json.RawMessage(`{"screen":{"width":390,"height":844},"platform":"iPhone"}`)
	second, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.Fingerprint = &FingerprintInput{Payload: other, Hash: s.sign(other)}
	}))
	s.Require().NoError(err)
	s.Equal(ActionRefuse, second.Action)
	s.Equal(ReasonDuplicateValid, second.Reason)
}

func (s *ServiceSuite) TestTamperedFingerprintRecordedAsRejected() {
	result, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.Fingerprint.Hash = "00" + sub.Fingerprint.Hash[2:]
	}))
	s.Require().NoError(err)

	s.Equal(ActionInsert, result.Action)
	s.Equal(ReasonTamperedFingerprint, result.Reason)
	s.False(result.Record.IsValid)
	s.Equal(attendance.StatusRejected, result.Record.Status)
	s.Equal(audit.ActionCheckinReject, s.auditor.last().Action)
}

func (s *ServiceSuite) TestMalformedPayloadIsBadRequest() {
	_, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.Fingerprint.Payload = json.RawMessage(`{"broken":`)
	}))
	s.Require().Error(err)
	s.Equal(domainerrors.CodeBadRequest, domainerrors.CodeOf(err))
}

func (s *ServiceSuite) TestClosedWindowRecordsNothing() {
	late := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
	_, err := s.svc.Submit(late, s.submission(nil))
	s.Require().Error(err)
	s.Equal(domainerrors.CodeForbidden, domainerrors.CodeOf(err))

	recs, err := s.records.ListByEvent(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Empty(recs)
}

func (s *ServiceSuite) TestUnknownEvent() {
	_, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.EventID = uuid.New()
	}))
	s.Require().Error(err)
	s.Equal(domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func (s *ServiceSuite) TestAnonymousSubmissionSkipsDomainRule() {
	// The default event restricts email domains; a submission with no email
	// has nothing for the domain rule to check and is admitted.
	result, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.UserID = ""
		sub.Email = ""
	}))
	s.Require().NoError(err)
	s.Equal(ActionInsert, result.Action)
	s.Empty(result.Reason)
	s.True(result.Record.IsValid)
	s.Equal(attendance.StatusApproved, result.Record.Status)
}

func (s *ServiceSuite) TestLegacySubmissionDedupesByUserAgent() {
	legacy := func(sub *Submission) {
		sub.UserID = ""
		sub.Fingerprint = nil
	}

	first, err := s.svc.Submit(s.ctx, s.submission(legacy))
	s.Require().NoError(err)
	s.Equal(ActionInsert, first.Action)
	s.True(first.Record.IsValid)
	s.Len(first.Record.FingerprintIdentity, 64)

	// Same browser and IP resolves to the same identity.
	second, err := s.svc.Submit(s.ctx, s.submission(legacy))
	s.Require().NoError(err)
	s.Equal(ActionRefuse, second.Action)

	// A different IP is a different legacy identity.
	third, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		legacy(sub)
		sub.IP = "203.0.113.8"
	}))
	s.Require().NoError(err)
	s.Equal(ActionInsert, third.Action)
}

func (s *ServiceSuite) TestLegacyWithoutUserAgentIsBadRequest() {
	_, err := s.svc.Submit(s.ctx, s.submission(func(sub *Submission) {
		sub.Fingerprint = nil
		sub.UserAgent = ""
	}))
	s.Require().Error(err)
	s.Equal(domainerrors.CodeBadRequest, domainerrors.CodeOf(err))
}

// conflictingStore simulates losing the uniqueness race: the prior lookup sees
// nothing, the insert hits the constraint, and the re-read finds the winner.
type conflictingStore struct {
	*attendance.MemoryStore
	winner   *attendance.Record
	inserted bool
}

func (c *conflictingStore) FindByEventAndIdentity(ctx context.Context, eventID uuid.UUID, keys attendance.IdentityKeys) (*attendance.Record, error) {
	if !c.inserted {
		return nil, sentinel.ErrNotFound
	}
	return c.winner, nil
}

func (c *conflictingStore) Insert(ctx context.Context, rec *attendance.Record) error {
	c.inserted = true
	return sentinel.ErrConflict
}

func (s *ServiceSuite) TestInsertRaceFoldsIntoRefusal() {
	winner := &attendance.Record{
		ID:      uuid.New(),
		EventID: s.eventID,
		IsValid: true,
		Status:  attendance.StatusApproved,
	}
	svc := NewService(
		eventSource{store: s.events},
		&conflictingStore{MemoryStore: attendance.NewMemoryStore(), winner: winner},
		fingerprint.NewService(testSecret),
		WithAuditEmitter(s.auditor),
	)

	result, err := svc.Submit(s.ctx, s.submission(nil))
	s.Require().NoError(err)
	s.Equal(ActionRefuse, result.Action)
	s.Equal(ReasonDuplicateValid, result.Reason)
	s.Equal(winner.ID, result.Record.ID)
}
