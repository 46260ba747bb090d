// Package fingerprint verifies client-submitted device fingerprints and
// derives the canonical identity hash used for attendance deduplication.
//
// The client collects stable device characteristics, serializes them
// canonically, and sends both the payload and an HMAC of it computed with a
// shared secret. We recompute the HMAC server-side; a mismatch means the
// payload was tampered with in transit or forged, which is a hard
// authentication failure rather than a business-rule rejection.
//
// The deduplication identity is an unkeyed content hash of the same canonical
// bytes. Keeping it independent of the HMAC secret lets the secret rotate
// without moving existing identities.
package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Service authenticates fingerprint payloads with an injected secret. No
// module-level state; construct once at wiring time.
type Service struct {
	secret []byte
}

// NewService constructs a fingerprint service around the shared client
// secret.
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Authenticate recomputes the keyed hash of the payload's canonical
// serialization and compares it to the client's claimed hash in constant
// time. The deduplication identity is returned whenever the payload
// canonicalizes, even on a hash mismatch, so a tampered attempt can still be
// recorded under its identity; identity is empty only for malformed payloads.
func (s *Service) Authenticate(payload json.RawMessage, claimedHash string) (identity string, ok bool) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", false
	}
	identity = Identity(canonical)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	expected := mac.Sum(nil)

	claimed, err := hex.DecodeString(claimedHash)
	if err != nil {
		return identity, false
	}
	return identity, hmac.Equal(expected, claimed)
}

// Identity derives the unkeyed deduplication hash from canonical payload
// bytes.
func Identity(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// LegacyIdentity derives a deduplication identity for clients that submit no
// fingerprint payload at all. Hashing the normalized user agent together with
// the client IP is weaker than a device fingerprint but keeps the same
// two-key dedup shape (userId OR identity). The user agent is reduced to
// browser, major version and OS so a browser patch release does not mint a
// fresh identity.
func LegacyIdentity(userAgent, ip string) string {
	normalized := NormalizeUserAgent(userAgent)
	sum := sha256.Sum256(fmt.Appendf(nil, "legacy|%s|%s", normalized, ip))
	return hex.EncodeToString(sum[:])
}
