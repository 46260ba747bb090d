package auth

import "context"

// Store persists user accounts.
type Store interface {
	// Create inserts a user; sentinel.ErrConflict when the email is taken.
	Create(ctx context.Context, user *User) error
	// FindByEmail returns the user or sentinel.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)
}
