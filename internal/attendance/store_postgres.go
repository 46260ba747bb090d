package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/pkg/platform/sentinel"
)

// PostgresStore persists attendance records. The partial unique indexes on
// (event_id, fingerprint_identity) and (event_id, user_id) WHERE is_valid are
// the authoritative guard against the check-then-act race in the reconciler;
// Insert translates their violation into sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, event_id, user_id, email, ip, fingerprint_identity, device, status, is_valid, notes, reviewed_by, reviewed_at, created_at`

func (s *PostgresStore) FindByEventAndIdentity(ctx context.Context, eventID uuid.UUID, keys IdentityKeys) (*Record, error) {
	// user_id matching must not treat two anonymous submissions as the same
	// user, hence the explicit empty-string guard.
	query := `
		SELECT ` + recordColumns + `
		FROM attendances
		WHERE event_id = $1
		  AND (($2 <> '' AND user_id = $2) OR fingerprint_identity = $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, eventID, keys.UserID, keys.FingerprintIdentity))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance by identity: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO attendances (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.EventID, nullString(rec.UserID), nullString(rec.Email), rec.IP,
		rec.FingerprintIdentity, rec.Device, string(rec.Status), rec.IsValid,
		nullString(rec.Notes), nullString(rec.ReviewedBy), rec.ReviewedAt, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendances WHERE id = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendances WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateReview(ctx context.Context, id uuid.UUID, status Status, notes, reviewedBy string, reviewedAt time.Time) (*Record, error) {
	query := `
		UPDATE attendances
		SET status = $2, notes = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1
		RETURNING ` + recordColumns
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id, string(status), nullString(notes), nullString(reviewedBy), reviewedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update attendance review: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var userID, email, notes, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	var status string
	err := row.Scan(&rec.ID, &rec.EventID, &userID, &email, &rec.IP,
		&rec.FingerprintIdentity, &rec.Device, &status, &rec.IsValid,
		&notes, &reviewedBy, &reviewedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.UserID = userID.String
	rec.Email = email.String
	rec.Notes = notes.String
	rec.ReviewedBy = reviewedBy.String
	rec.Status = Status(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		rec.ReviewedAt = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
