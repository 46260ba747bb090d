package admission

import (
	"encoding/json"

	"github.com/google/uuid"

	"rollcall/internal/attendance"
)

// Reason explains a non-approved outcome. Values are part of the API surface
// and stored on records, so they stay stable.
type Reason string

const (
	ReasonEmailDomain         Reason = "EMAIL_DOMAIN"
	ReasonIPNotAllowed        Reason = "IP_NOT_ALLOWED"
	ReasonDuplicateValid      Reason = "DUPLICATE_VALID"
	ReasonTamperedFingerprint Reason = "TAMPERED_FINGERPRINT"
)

// Action is the reconciler's verdict on how a submission relates to the
// attendee's prior record for the event.
type Action string

const (
	ActionInsert    Action = "INSERT"
	ActionOverwrite Action = "OVERWRITE"
	ActionRefuse    Action = "REFUSE"
)

// FingerprintInput is the client-collected device payload plus the keyed hash
// the client claims for it.
type FingerprintInput struct {
	Payload json.RawMessage
	Hash    string
}

// Submission is one check-in attempt. Fingerprint is nil for legacy clients;
// those are identified by user agent and IP instead. UserID and Email are
// blank for anonymous submissions.
type Submission struct {
	EventID     uuid.UUID
	UserID      string
	Email       string
	IP          string
	UserAgent   string
	Fingerprint *FingerprintInput
}

// Evaluation is the automatic admission outcome before reconciliation.
type Evaluation struct {
	Status  attendance.Status
	IsValid bool
	Reason  Reason
}

// Resolution is what the reconciler decided to do with the prior record.
type Resolution struct {
	Action Action
	Prior  *attendance.Record
}

// SubmitResult is returned to the transport layer. For ActionRefuse, Record
// is the surviving prior record and Reason is ReasonDuplicateValid.
type SubmitResult struct {
	Action Action
	Record *attendance.Record
	Reason Reason
}
