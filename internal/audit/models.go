package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail. Check-in actions mirror the reconciler's
// outcomes so superseded attempts stay reconstructable after the record
// itself is overwritten.
const (
	ActionCheckinInsert    = "checkin.insert"
	ActionCheckinOverwrite = "checkin.overwrite"
	ActionCheckinRefuse    = "checkin.refuse"
	ActionCheckinReject    = "checkin.reject"
	ActionReview           = "attendance.review"
	ActionEventCreate      = "event.create"
	ActionEventDelete      = "event.delete"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	EventID     string    `json:"event_id,omitempty"`
	RecordID    string    `json:"record_id,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	IdentityKey string    `json:"identity_key,omitempty"`
	IP          string    `json:"ip,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}
