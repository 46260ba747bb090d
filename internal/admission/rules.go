package admission

import (
	"strings"

	"rollcall/internal/attendance"
	"rollcall/internal/event"
	"rollcall/internal/ipmatch"
)

// EvaluatePolicy applies the event's access policy to a submission.
// This is pure domain logic - no I/O, no side effects.
// Rule priority (fail-fast, first failing rule wins):
//  1. Email domain restriction
//  2. IP allow list
//
// An empty list means no restriction for that rule, and a rule with nothing
// to check is inapplicable: a submission without a declared email skips the
// domain rule and falls through to the IP check. The activity window is not
// checked here; the service enforces it before evaluation.
func EvaluatePolicy(policy event.AccessPolicy, email, ip string) Evaluation {
	// Rule 1: email domain restriction
	if len(policy.AllowedEmailDomains) > 0 && email != "" && !domainAllowed(email, policy.AllowedEmailDomains) {
		return rejected(ReasonEmailDomain)
	}

	// Rule 2: IP allow list
	if len(policy.IPAllowList) > 0 && !ipmatch.Matches(ip, policy.IPAllowList) {
		return rejected(ReasonIPNotAllowed)
	}

	return Evaluation{Status: attendance.StatusApproved, IsValid: true}
}

// TamperedEvaluation is the outcome for a fingerprint whose claimed hash does
// not verify. The attempt is still recorded, invalid, so organizers can see
// it in review.
func TamperedEvaluation() Evaluation {
	return rejected(ReasonTamperedFingerprint)
}

func rejected(reason Reason) Evaluation {
	return Evaluation{Status: attendance.StatusRejected, IsValid: false, Reason: reason}
}

// domainAllowed matches the part after the last "@" against the normalized
// allow list. A missing or empty domain never matches a non-empty list.
func domainAllowed(email string, allowed []string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range allowed {
		if domain == d {
			return true
		}
	}
	return false
}
