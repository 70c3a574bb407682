package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contactshub/contacts-api/internal/user"
)

// TokenService creates and validates signed session tokens.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(accountID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the credential store the auth subsystem runs against.
// *user.Repository is the production implementation.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, verificationToken string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetSessionToken(ctx context.Context, id uuid.UUID, token string) error
	ClearSessionToken(ctx context.Context, id uuid.UUID) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, subscription string) (*user.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// EmailService defines the mail capability the workflows depend on.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// PasswordResetStore holds short-lived password reset tokens.
type PasswordResetStore interface {
	Store(ctx context.Context, accountID uuid.UUID, token string) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// AvatarStore normalizes an uploaded file and persists it, returning the
// public reference to record on the account.
type AvatarStore interface {
	Store(accountID uuid.UUID, tmpPath, originalName string) (string, error)
}
