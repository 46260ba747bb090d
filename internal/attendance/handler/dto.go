package handler

import (
	"time"

	"rollcall/internal/attendance"
)

// ReviewRequest is the body of POST /attendances/{recordID}/review.
type ReviewRequest struct {
	Decision string `json:"decision"` // "approve" or "reject"
	Notes    string `json:"notes,omitempty"`
}

// RecordResponse is the organizer-facing shape of an attendance record.
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

func FromRecords(recs []*attendance.Record) []*RecordResponse {
	out := make([]*RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}
