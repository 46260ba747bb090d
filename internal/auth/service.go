package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "rollcall/pkg/domain-errors"
	mwauth "rollcall/pkg/platform/middleware/auth"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// Service handles account registration and token issuance.
type Service struct {
	store   Store
	tokens  *JWTService
	isAdmin func(email string) bool
	logger  *slog.Logger
}

func NewService(store Store, tokens *JWTService, isAdmin func(email string) bool, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		tokens:  tokens,
		isAdmin: isAdmin,
		logger:  logger,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// Register creates an account. The admin role is never self-assigned; it is
// granted at token time to configured admin emails.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = mwauth.RoleAttendee
	}
	if role != mwauth.RoleOrganizer && role != mwauth.RoleAttendee {
		return nil, dErrors.New(dErrors.CodeBadRequest, "role must be organizer or attendee")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// IssueToken verifies credentials and mints an access token. Configured admin
// emails are elevated to the admin role here.
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "load user", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	role := user.Role
	if s.isAdmin != nil && s.isAdmin(user.Email) {
		role = mwauth.RoleAdmin
	}

	token, err := s.tokens.GenerateAccessToken(user.ID.String(), user.Email, role, requestcontext.Now(ctx))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "sign token", err)
	}

	s.logger.InfoContext(ctx, "token issued", "user_id", user.ID, "role", role)
	return token, nil
}
