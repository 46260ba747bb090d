package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Status is the review state of an attendance record. The admission engine
// sets it once at submission time; organizers may overwrite it later through
// the review flow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Record is one check-in attempt for an event. IsValid is the automatic
// admission outcome and is immutable after insert; Status starts out mirroring
// it but belongs to the organizer once a review happens. The dedup invariant
// (at most one valid record per event and identity) references IsValid only.
type Record struct {
	ID                  uuid.UUID
	EventID             uuid.UUID
	UserID              string // empty for anonymous submissions
	Email               string
	IP                  string
	FingerprintIdentity string
	Device              string // human-readable device label, display only
	Status              Status
	IsValid             bool
	Notes               string
	ReviewedBy          string
	ReviewedAt          *time.Time
	CreatedAt           time.Time
}

// IdentityKeys are the two deduplication keys a submission carries. UserID is
// optional; FingerprintIdentity is always present (fingerprint hash or the
// legacy user-agent fallback).
type IdentityKeys struct {
	UserID              string
	FingerprintIdentity string
}
