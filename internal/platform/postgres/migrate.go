package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements are idempotent so startup can apply them unconditionally.
// The partial unique indexes on attendances back the "at most one valid record
// per (event, identity)" invariant; concurrent submissions racing past the
// reconciler's read are rejected here and surfaced as a conflict.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id                    UUID PRIMARY KEY,
		creator_id            TEXT NOT NULL,
		name                  TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		location              TEXT NOT NULL DEFAULT '',
		start_at              TIMESTAMPTZ NOT NULL,
		end_at                TIMESTAMPTZ NOT NULL,
		ip_allow_list         TEXT[] NOT NULL DEFAULT '{}',
		allowed_email_domains TEXT[] NOT NULL DEFAULT '{}',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_creator ON events (creator_id)`,

	`CREATE TABLE IF NOT EXISTS attendances (
		id                   UUID PRIMARY KEY,
		event_id             UUID NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		user_id              TEXT,
		email                TEXT,
		ip                   TEXT NOT NULL DEFAULT '',
		fingerprint_identity TEXT NOT NULL,
		device               TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL,
		is_valid             BOOLEAN NOT NULL,
		notes                TEXT,
		reviewed_by          TEXT,
		reviewed_at          TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendances_event ON attendances (event_id, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_attendances_valid_fingerprint
		ON attendances (event_id, fingerprint_identity) WHERE is_valid`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_attendances_valid_user
		ON attendances (event_id, user_id) WHERE is_valid AND user_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash BYTEA NOT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id           UUID PRIMARY KEY,
		action       TEXT NOT NULL,
		event_id     TEXT NOT NULL DEFAULT '',
		record_id    TEXT NOT NULL DEFAULT '',
		actor_id     TEXT NOT NULL DEFAULT '',
		decision     TEXT NOT NULL DEFAULT '',
		reason       TEXT NOT NULL DEFAULT '',
		identity_key TEXT NOT NULL DEFAULT '',
		ip           TEXT NOT NULL DEFAULT '',
		request_id   TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_event ON audit_events (event_id, created_at DESC)`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
