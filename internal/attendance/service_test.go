package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/audit"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

type stubEvents struct {
	creators map[uuid.UUID]string
}

func (s stubEvents) CreatorOf(_ context.Context, eventID uuid.UUID) (string, error) {
	creator, ok := s.creators[eventID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return creator, nil
}

type stubAuditor struct {
	events []audit.Event
}

func (s *stubAuditor) Emit(_ context.Context, ev audit.Event) {
	s.events = append(s.events, ev)
}

type ReviewSuite struct {
	suite.Suite
	store   *MemoryStore
	auditor *stubAuditor
	svc     *Service
	eventID uuid.UUID
	rec     *Record
}

func TestReviewSuite(t *testing.T) {
	suite.Run(t, new(ReviewSuite))
}

func (s *ReviewSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.auditor = &stubAuditor{}
	s.eventID = uuid.New()
	s.svc = NewService(s.store,
		stubEvents{creators: map[uuid.UUID]string{s.eventID: "organizer-1"}},
		WithAuditEmitter(s.auditor),
	)

	// Records arrive the way the check-in pipeline writes them: already
	// approved or rejected, never pending.
	s.rec = &Record{
		ID:                  uuid.New(),
		EventID:             s.eventID,
		UserID:              "user-1",
		FingerprintIdentity: "fp-1",
		Status:              StatusApproved,
		IsValid:             true,
		CreatedAt:           time.Now(),
	}
	s.Require().NoError(s.store.Insert(context.Background(), s.rec))
}

func (s *ReviewSuite) organizerCtx() context.Context {
	ctx := requestcontext.WithUserID(context.Background(), "organizer-1")
	return requestcontext.WithTime(ctx, time.Now())
}

func (s *ReviewSuite) TestApprove() {
	updated, err := s.svc.Review(s.organizerCtx(), ReviewInput{
		RecordID: s.rec.ID,
		Approve:  true,
		Notes:    "verified at desk",
	})
	s.Require().NoError(err)
	s.Equal(StatusApproved, updated.Status)
	s.Equal("verified at desk", updated.Notes)
	s.Equal("organizer-1", updated.ReviewedBy)
	s.Require().NotNil(updated.ReviewedAt)

	s.Require().Len(s.auditor.events, 1)
	s.Equal(audit.ActionReview, s.auditor.events[0].Action)
	s.Equal("approved", s.auditor.events[0].Decision)
}

func (s *ReviewSuite) TestReject() {
	updated, err := s.svc.Review(s.organizerCtx(), ReviewInput{RecordID: s.rec.ID, Approve: false})
	s.Require().NoError(err)
	s.Equal(StatusRejected, updated.Status)
}

func (s *ReviewSuite) TestReReviewOverridesPriorDecision() {
	_, err := s.svc.Review(s.organizerCtx(), ReviewInput{RecordID: s.rec.ID, Approve: false, Notes: "badge mismatch"})
	s.Require().NoError(err)

	updated, err := s.svc.Review(s.organizerCtx(), ReviewInput{RecordID: s.rec.ID, Approve: true, Notes: "resolved"})
	s.Require().NoError(err)
	s.Equal(StatusApproved, updated.Status)
	s.Equal("resolved", updated.Notes)
	s.Len(s.auditor.events, 2)
}

func (s *ReviewSuite) TestReviewLeavesValidityUntouched() {
	// Rejecting by review does not free the identity slot; the reconciler
	// keys on IsValid.
	updated, err := s.svc.Review(s.organizerCtx(), ReviewInput{RecordID: s.rec.ID, Approve: false})
	s.Require().NoError(err)
	s.Equal(StatusRejected, updated.Status)
	s.True(updated.IsValid)
}

func (s *ReviewSuite) TestNonOwnerForbidden() {
	ctx := requestcontext.WithUserID(context.Background(), "someone-else")
	_, err := s.svc.Review(ctx, ReviewInput{RecordID: s.rec.ID, Approve: true})
	s.Require().Error(err)
	s.Equal(domainerrors.CodeForbidden, domainerrors.CodeOf(err))
}

func (s *ReviewSuite) TestAdminBypassesOwnership() {
	ctx := requestcontext.WithUserID(context.Background(), "someone-else")
	ctx = requestcontext.WithUserRole(ctx, "admin")
	_, err := s.svc.Review(ctx, ReviewInput{RecordID: s.rec.ID, Approve: true})
	s.NoError(err)
}

func (s *ReviewSuite) TestUnknownRecord() {
	_, err := s.svc.Review(s.organizerCtx(), ReviewInput{RecordID: uuid.New(), Approve: true})
	s.Require().Error(err)
	s.Equal(domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func (s *ReviewSuite) TestListByEventRequiresOwnership() {
	ctx := requestcontext.WithUserID(context.Background(), "someone-else")
	_, err := s.svc.ListByEvent(ctx, s.eventID)
	s.Require().Error(err)
	s.Equal(domainerrors.CodeForbidden, domainerrors.CodeOf(err))

	records, err := s.svc.ListByEvent(s.organizerCtx(), s.eventID)
	s.Require().NoError(err)
	s.Len(records, 1)
}
