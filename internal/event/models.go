package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	platformstrings "rollcall/pkg/platform/strings"
)

// Event is an organizer-owned check-in window with an access policy attached.
type Event struct {
	ID                  uuid.UUID
	CreatorID           string
	Name                string
	Description         string
	Location            string
	StartAt             time.Time
	EndAt               time.Time
	IPAllowList         []string
	AllowedEmailDomains []string
	CreatedAt           time.Time
}

// AccessPolicy is the submission-facing subset of an event. It is immutable
// for the duration of a submission: the admission service reads it once and
// never re-fetches mid-decision.
type AccessPolicy struct {
	IPAllowList         []string
	AllowedEmailDomains []string
	StartAt             time.Time
	EndAt               time.Time
}

// AccessPolicy extracts the submission-facing policy from an event.
func (e *Event) AccessPolicy() AccessPolicy {
	return AccessPolicy{
		IPAllowList:         e.IPAllowList,
		AllowedEmailDomains: e.AllowedEmailDomains,
		StartAt:             e.StartAt,
		EndAt:               e.EndAt,
	}
}

// WindowContains reports whether t falls inside the activity window. The
// window check is a precondition enforced by the admission service before the
// policy evaluation runs.
func (p AccessPolicy) WindowContains(t time.Time) bool {
	return !t.Before(p.StartAt) && !t.After(p.EndAt)
}

// NormalizeDomains lowercases email domains and strips a leading "@" so
// organizers can paste either form. Empty entries and duplicates are dropped.
func NormalizeDomains(domains []string) []string {
	stripped := make([]string, 0, len(domains))
	for _, d := range domains {
		stripped = append(stripped, strings.TrimPrefix(strings.TrimSpace(d), "@"))
	}
	return platformstrings.DedupeAndTrimLower(stripped)
}

// NormalizeIPList trims and dedupes allow-list entries. Validation of the
// entries themselves happens at match time.
func NormalizeIPList(entries []string) []string {
	return platformstrings.DedupeAndTrim(entries)
}
