package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const passwordResetTokenTTL = 1 * time.Hour

// PasswordResetRepository stores password reset tokens in Redis with a
// one-hour TTL. Keys are derived from a hash of the token so the raw token
// never touches Redis.
type PasswordResetRepository struct {
	client *redis.Client
}

func NewPasswordResetRepository(client *redis.Client) *PasswordResetRepository {
	return &PasswordResetRepository{client: client}
}

// Store saves the token for the given account.
func (r *PasswordResetRepository) Store(ctx context.Context, accountID uuid.UUID, token string) error {
	key := passwordResetKey(token)

	if err := r.client.Set(ctx, key, accountID.String(), passwordResetTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	return nil
}

// Consume resolves the token to an account id and deletes it in the same
// round trip, so a reset link works exactly once.
func (r *PasswordResetRepository) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	key := passwordResetKey(token)

	accountIDStr, err := r.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume password reset token: %w", err)
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse account id: %w", err)
	}

	return accountID, nil
}

func passwordResetKey(token string) string {
	return fmt.Sprintf("password_reset:%s", hashToken(token))
}

// hashToken returns a hex-encoded SHA-256 digest of the token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
