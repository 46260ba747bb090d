package handler

import (
	"encoding/json"

	"rollcall/internal/admission"
)

// FingerprintRequest carries the raw client payload plus its keyed hash.
type FingerprintRequest struct {
	Payload json.RawMessage `json:"payload"`
	Hash    string          `json:"hash"`
}

// CheckinRequest is the body of POST /events/{eventID}/checkin. Fingerprint
// is optional; legacy clients omit it and are identified by user agent.
// Client IP and user agent come from the middleware, not from the body.
type CheckinRequest struct {
	Email       string              `json:"email,omitempty"`
	Fingerprint *FingerprintRequest `json:"fingerprint,omitempty"`
}

func (r CheckinRequest) fingerprintInput() *admission.FingerprintInput {
	if r.Fingerprint == nil {
		return nil
	}
	return &admission.FingerprintInput{
		Payload: r.Fingerprint.Payload,
		Hash:    r.Fingerprint.Hash,
	}
}
