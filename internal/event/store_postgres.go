package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rollcall/pkg/platform/sentinel"
)

// PostgresStore persists events in PostgreSQL. Allow lists live in text[]
// columns scanned through pq array helpers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, ev *Event) error {
	query := `
		INSERT INTO events (id, creator_id, name, description, location, start_at, end_at, ip_allow_list, allowed_email_domains, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.CreatorID, ev.Name, ev.Description, ev.Location,
		ev.StartAt, ev.EndAt, pq.StringArray(ev.IPAllowList), pq.StringArray(ev.AllowedEmailDomains), ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `
		SELECT id, creator_id, name, description, location, start_at, end_at, ip_allow_list, allowed_email_domains, created_at
		FROM events WHERE id = $1
	`
	ev, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) ListByCreator(ctx context.Context, creatorID string) ([]*Event, error) {
	query := `
		SELECT id, creator_id, name, description, location, start_at, end_at, ip_allow_list, allowed_email_domains, created_at
		FROM events WHERE creator_id = $1 ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, ev *Event) error {
	query := `
		UPDATE events
		SET name = $2, description = $3, location = $4, start_at = $5, end_at = $6,
		    ip_allow_list = $7, allowed_email_domains = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Name, ev.Description, ev.Location, ev.StartAt, ev.EndAt,
		pq.StringArray(ev.IPAllowList), pq.StringArray(ev.AllowedEmailDomains),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var ev Event
	var ipList, domains pq.StringArray
	err := row.Scan(&ev.ID, &ev.CreatorID, &ev.Name, &ev.Description, &ev.Location,
		&ev.StartAt, &ev.EndAt, &ipList, &domains, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	ev.IPAllowList = ipList
	ev.AllowedEmailDomains = domains
	return &ev, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
