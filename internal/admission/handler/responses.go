package handler

import (
	"time"

	"rollcall/internal/admission"
	"rollcall/internal/attendance"
)

// RecordResponse is the transport shape of an attendance record. The
// fingerprint identity is exposed so clients can correlate refusals with
// their own submission; the raw payload never leaves the server.
type RecordResponse struct {
	ID                  string     `json:"id"`
	EventID             string     `json:"event_id"`
	UserID              string     `json:"user_id,omitempty"`
	Email               string     `json:"email,omitempty"`
	IP                  string     `json:"ip"`
	FingerprintIdentity string     `json:"fingerprint_identity"`
	Device              string     `json:"device,omitempty"`
	Status              string     `json:"status"`
	IsValid             bool       `json:"is_valid"`
	Notes               string     `json:"notes,omitempty"`
	ReviewedBy          string     `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// CheckinResponse reports how the submission was reconciled. Status and
// validity are surfaced at the top level next to the action so clients do not
// have to dig into the record, and the message gives attendees a sentence
// they can show as-is.
type CheckinResponse struct {
	Status  string          `json:"status"`
	IsValid bool            `json:"is_valid"`
	Action  string          `json:"action"`
	Reason  string          `json:"reason,omitempty"`
	Message string          `json:"message"`
	Record  *RecordResponse `json:"record,omitempty"`
}

func FromRecord(rec *attendance.Record) *RecordResponse {
	if rec == nil {
		return nil
	}
	return &RecordResponse{
		ID:                  rec.ID.String(),
		EventID:             rec.EventID.String(),
		UserID:              rec.UserID,
		Email:               rec.Email,
		IP:                  rec.IP,
		FingerprintIdentity: rec.FingerprintIdentity,
		Device:              rec.Device,
		Status:              string(rec.Status),
		IsValid:             rec.IsValid,
		Notes:               rec.Notes,
		ReviewedBy:          rec.ReviewedBy,
		ReviewedAt:          rec.ReviewedAt,
		CreatedAt:           rec.CreatedAt,
	}
}

func FromResult(result *admission.SubmitResult) CheckinResponse {
	resp := CheckinResponse{
		Action:  string(result.Action),
		Reason:  string(result.Reason),
		Message: messageFor(result),
		Record:  FromRecord(result.Record),
	}
	if result.Record != nil {
		resp.Status = string(result.Record.Status)
		resp.IsValid = result.Record.IsValid
	}
	return resp
}

// messageFor turns the reconciliation outcome into an attendee-facing
// sentence. A refusal always means a valid check-in already exists for this
// identity.
func messageFor(result *admission.SubmitResult) string {
	if result.Action == admission.ActionRefuse {
		return "You have already checked in to this event."
	}
	switch result.Reason {
	case admission.ReasonEmailDomain:
		return "Your email domain is not allowed for this event."
	case admission.ReasonIPNotAllowed:
		return "Your network address is not allowed for this event."
	case admission.ReasonTamperedFingerprint:
		return "Your device fingerprint could not be verified."
	}
	if result.Action == admission.ActionOverwrite {
		return "Check-in successful. Your earlier attempt was replaced."
	}
	return "Check-in successful."
}
