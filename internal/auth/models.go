package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an organizer or attendee account. Attendees do not need one to
// check in; accounts exist for organizers and for attendees who want their
// submissions tied to a stable user ID.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Role         string
	CreatedAt    time.Time
}
