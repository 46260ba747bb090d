//go:build integration

package attendance_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/attendance"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *attendance.PostgresStore
	eventID  uuid.UUID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = attendance.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "attendances", "events")
	s.Require().NoError(err)

	// attendances.event_id references events(id)
	s.eventID = uuid.New()
	_, err = s.postgres.DB.ExecContext(ctx, `
		INSERT INTO events (id, creator_id, name, start_at, end_at, ip_allow_list, allowed_email_domains, created_at)
		VALUES ($1, 'organizer-1', 'integration event', now() - interval '1 hour', now() + interval '1 hour', $2, $3, now())
	`, s.eventID, pq.StringArray{}, pq.StringArray{})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newRecord(mutate func(*attendance.Record)) *attendance.Record {
	rec := &attendance.Record{
		ID:                  uuid.New(),
		EventID:             s.eventID,
		UserID:              "user-1",
		Email:               "alice@ou.edu.vn",
		IP:                  "203.0.113.7",
		FingerprintIdentity: "fp-1",
		Device:              "Chrome on Mac OS X",
		Status:              attendance.StatusApproved,
		IsValid:             true,
		CreatedAt:           time.Now().UTC(),
	}
	if mutate != nil {
		mutate(rec)
	}
	return rec
}

func (s *PostgresStoreSuite) TestInsertAndRoundTrip() {
	ctx := context.Background()
	rec := s.newRecord(nil)
	s.Require().NoError(s.store.Insert(ctx, rec))

	found, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.UserID, found.UserID)
	s.Equal(rec.Email, found.Email)
	s.Equal(rec.FingerprintIdentity, found.FingerprintIdentity)
	s.Equal(rec.Device, found.Device)
	s.Equal(attendance.StatusApproved, found.Status)
	s.True(found.IsValid)
	s.Nil(found.ReviewedAt)
}

func (s *PostgresStoreSuite) TestUniqueIndexRejectsSecondValidFingerprint() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newRecord(nil)))

	dup := s.newRecord(func(r *attendance.Record) { r.UserID = "user-2" })
	s.ErrorIs(s.store.Insert(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUniqueIndexRejectsSecondValidUser() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newRecord(nil)))

	dup := s.newRecord(func(r *attendance.Record) { r.FingerprintIdentity = "fp-2" })
	s.ErrorIs(s.store.Insert(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestInvalidRecordsAreNotConstrained() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rec := s.newRecord(func(r *attendance.Record) {
			r.IsValid = false
			r.Status = attendance.StatusRejected
		})
		s.Require().NoError(s.store.Insert(ctx, rec))
	}
}

func (s *PostgresStoreSuite) TestAnonymousRecordsDoNotCollideOnUser() {
	ctx := context.Background()
	first := s.newRecord(func(r *attendance.Record) { r.UserID = "" })
	second := s.newRecord(func(r *attendance.Record) {
		r.UserID = ""
		r.FingerprintIdentity = "fp-2"
	})
	s.Require().NoError(s.store.Insert(ctx, first))
	s.Require().NoError(s.store.Insert(ctx, second))
}

func (s *PostgresStoreSuite) TestFindByEventAndIdentity() {
	ctx := context.Background()
	rec := s.newRecord(nil)
	s.Require().NoError(s.store.Insert(ctx, rec))

	s.Run("by fingerprint", func() {
		found, err := s.store.FindByEventAndIdentity(ctx, s.eventID,
			attendance.IdentityKeys{FingerprintIdentity: "fp-1"})
		s.Require().NoError(err)
		s.Equal(rec.ID, found.ID)
	})

	s.Run("by user ID", func() {
		found, err := s.store.FindByEventAndIdentity(ctx, s.eventID,
			attendance.IdentityKeys{UserID: "user-1", FingerprintIdentity: "other"})
		s.Require().NoError(err)
		s.Equal(rec.ID, found.ID)
	})

	s.Run("empty user key does not match anonymous rows", func() {
		anon := s.newRecord(func(r *attendance.Record) {
			r.UserID = ""
			r.IsValid = false
			r.FingerprintIdentity = "fp-anon"
		})
		s.Require().NoError(s.store.Insert(ctx, anon))

		_, err := s.store.FindByEventAndIdentity(ctx, s.eventID,
			attendance.IdentityKeys{FingerprintIdentity: "fp-unknown"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("most recent wins", func() {
		newer := s.newRecord(func(r *attendance.Record) {
			r.IsValid = false
			r.Status = attendance.StatusRejected
			r.CreatedAt = time.Now().UTC().Add(time.Minute)
		})
		s.Require().NoError(s.store.Insert(ctx, newer))

		found, err := s.store.FindByEventAndIdentity(ctx, s.eventID,
			attendance.IdentityKeys{FingerprintIdentity: "fp-1"})
		s.Require().NoError(err)
		s.Equal(newer.ID, found.ID)
	})
}

func (s *PostgresStoreSuite) TestDeleteThenInsertSucceeds() {
	ctx := context.Background()
	first := s.newRecord(nil)
	s.Require().NoError(s.store.Insert(ctx, first))
	s.Require().NoError(s.store.Delete(ctx, first.ID))

	second := s.newRecord(nil)
	s.Require().NoError(s.store.Insert(ctx, second))
}

func (s *PostgresStoreSuite) TestUpdateReview() {
	ctx := context.Background()
	rec := s.newRecord(func(r *attendance.Record) { r.Status = attendance.StatusPending })
	s.Require().NoError(s.store.Insert(ctx, rec))

	reviewedAt := time.Now().UTC()
	updated, err := s.store.UpdateReview(ctx, rec.ID, attendance.StatusApproved, "ok at the desk", "organizer-1", reviewedAt)
	s.Require().NoError(err)
	s.Equal(attendance.StatusApproved, updated.Status)
	s.Equal("ok at the desk", updated.Notes)
	s.Equal("organizer-1", updated.ReviewedBy)
	s.Require().NotNil(updated.ReviewedAt)
	s.WithinDuration(reviewedAt, *updated.ReviewedAt, time.Second)
}

// TestConcurrentInsertSingleWinner drives the same identity from many
// goroutines; the partial unique index must admit exactly one valid row.
func (s *PostgresStoreSuite) TestConcurrentInsertSingleWinner() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var inserted, conflicted atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(ctx, s.newRecord(nil))
			switch {
			case err == nil:
				inserted.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicted.Add(1)
			default:
				s.T().Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), inserted.Load(), "exactly one insert should win")
	s.Equal(int32(goroutines-1), conflicted.Load())
}
