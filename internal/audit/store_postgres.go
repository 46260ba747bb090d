package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists the audit trail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, action, event_id, record_id, actor_id, decision, reason, identity_key, ip, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Action, event.EventID, event.RecordID, event.ActorID,
		event.Decision, event.Reason, event.IdentityKey, event.IP, event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEventID(ctx context.Context, eventID string) ([]Event, error) {
	query := `
		SELECT id, action, event_id, record_id, actor_id, decision, reason, identity_key, ip, request_id, created_at
		FROM audit_events
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Action, &ev.EventID, &ev.RecordID, &ev.ActorID,
			&ev.Decision, &ev.Reason, &ev.IdentityKey, &ev.IP, &ev.RequestID, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
