package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/contactshub/contacts-api/internal/logging"
	"github.com/contactshub/contacts-api/internal/user"
)

var (
	ErrInvalidCredentials    = errors.New("email or password is incorrect")
	ErrEmailRequired         = errors.New("email is required")
	ErrPasswordRequired      = errors.New("password is required")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat    = errors.New("invalid email format")
	ErrEmailNotVerified      = errors.New("email not verified, please check your inbox")
	ErrAlreadyVerified       = errors.New("verification has already been passed")
	ErrInvalidSubscription   = errors.New("subscription must be one of: starter, pro, business")
	ErrResetTokenNotFound    = errors.New("password reset token is invalid or has expired")
	ErrAvatarFileMissing     = errors.New("avatar file is required")
)

// Service implements the account lifecycle: registration, login/logout with a
// single active session token per account, email verification, avatar changes
// and password reset.
type Service struct {
	users       UserStore
	resetTokens PasswordResetStore
	tokens      TokenService
	email       EmailService
	avatars     AvatarStore
	logger      *logging.Logger
	tokenTTL    time.Duration
}

func NewService(
	users UserStore,
	resetTokens PasswordResetStore,
	tokens TokenService,
	email EmailService,
	avatars AvatarStore,
	logger *logging.Logger,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		users:       users,
		resetTokens: resetTokens,
		tokens:      tokens,
		email:       email,
		avatars:     avatars,
		logger:      logger,
		tokenTTL:    tokenTTL,
	}
}

// Register creates an unverified account and dispatches the verification
// email. Mail dispatch is fire-and-forget: a delivery failure is logged but
// never fails or rolls back the registration.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	// Fast-path duplicate check for a friendly error. The unique constraint
	// in the storage layer is the real arbiter under concurrency.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	verificationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash, verificationToken)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	go func() {
		// Fresh context: the request context dies with the response.
		emailCtx := context.Background()
		if err := s.email.SendVerificationEmail(emailCtx, email, verificationToken); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login verifies credentials, requires a confirmed email, issues a session
// token and records it on the account. The previous token, if any, is
// overwritten: the store holds at most one valid token per account.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if email == "" {
		return "", nil, ErrEmailRequired
	}
	if password == "" {
		return "", nil, ErrPasswordRequired
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same answer as a wrong password, to avoid account enumeration.
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existing.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	if !existing.Verified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.tokens.CreateToken(existing.ID, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, existing.ID, token); err != nil {
		return "", nil, fmt.Errorf("failed to record session token: %w", err)
	}

	return token, existing, nil
}

// Logout clears the active session token. The bearer token the client still
// holds remains cryptographically valid but will no longer match anything.
func (s *Service) Logout(ctx context.Context, accountID uuid.UUID) error {
	return s.users.ClearSessionToken(ctx, accountID)
}

// Current returns the account for the authenticated id.
func (s *Service) Current(ctx context.Context, accountID uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, accountID)
}

// UpdateSubscription changes the subscription tier.
func (s *Service) UpdateSubscription(ctx context.Context, accountID uuid.UUID, subscription string) (*user.User, error) {
	if !user.ValidSubscription(subscription) {
		return nil, ErrInvalidSubscription
	}
	return s.users.UpdateSubscription(ctx, accountID, subscription)
}

// UpdateAvatar runs the upload through the avatar pipeline and records the
// resulting reference on the account.
func (s *Service) UpdateAvatar(ctx context.Context, accountID uuid.UUID, tmpPath, originalName string) (string, error) {
	avatarURL, err := s.avatars.Store(accountID, tmpPath, originalName)
	if err != nil {
		return "", fmt.Errorf("failed to process avatar: %w", err)
	}

	if _, err := s.users.UpdateAvatar(ctx, accountID, avatarURL); err != nil {
		return "", fmt.Errorf("failed to record avatar: %w", err)
	}

	return avatarURL, nil
}

// VerifyEmail confirms the account holding the token and consumes the token.
// Replaying a consumed token yields user.ErrNotFound.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	existing, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to find user by token: %w", err)
	}

	if err := s.users.MarkVerified(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return nil
}

// ResendVerification re-sends the stored verification token. Unlike
// registration, mail dispatch here is synchronous and a delivery failure is
// surfaced to the caller.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existing.Verified {
		return ErrAlreadyVerified
	}
	if existing.VerificationToken == nil {
		return fmt.Errorf("unverified account %s has no verification token", existing.ID)
	}

	if err := s.email.SendVerificationEmail(ctx, email, *existing.VerificationToken); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

// RequestPasswordReset stores a one-hour reset token and emails the link.
// Always returns nil so callers cannot probe which emails exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	if err := s.resetTokens.Store(ctx, existing.ID, token); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.email.SendPasswordResetEmail(emailCtx, email, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token, replaces the password hash and clears
// the active session token so the old bearer token dies with the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	accountID, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrResetTokenNotFound
		}
		return fmt.Errorf("failed to consume password reset token: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, accountID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.users.ClearSessionToken(ctx, accountID); err != nil {
		s.logger.Warn("failed to clear session token after password reset", "account_id", accountID, "error", err)
	}

	return nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// generateRandomToken creates a cryptographically secure random token.
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
