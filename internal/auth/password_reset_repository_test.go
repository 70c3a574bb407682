package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResetRepo(t *testing.T) (*PasswordResetRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPasswordResetRepository(client), mr
}

func TestPasswordResetStoreAndConsume(t *testing.T) {
	repo, _ := newResetRepo(t)
	ctx := context.Background()

	accountID := uuid.New()
	require.NoError(t, repo.Store(ctx, accountID, "reset-token"))

	got, err := repo.Consume(ctx, "reset-token")
	require.NoError(t, err)
	assert.Equal(t, accountID, got)

	// Consuming deletes the token.
	_, err = repo.Consume(ctx, "reset-token")
	assert.ErrorIs(t, err, ErrResetTokenNotFound)
}

func TestPasswordResetUnknownToken(t *testing.T) {
	repo, _ := newResetRepo(t)

	_, err := repo.Consume(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrResetTokenNotFound)
}

func TestPasswordResetTokenExpires(t *testing.T) {
	repo, mr := newResetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, uuid.New(), "reset-token"))

	mr.FastForward(passwordResetTokenTTL + time.Minute)

	_, err := repo.Consume(ctx, "reset-token")
	assert.ErrorIs(t, err, ErrResetTokenNotFound)
}

func TestPasswordResetRawTokenNeverStored(t *testing.T) {
	repo, mr := newResetRepo(t)

	require.NoError(t, repo.Store(context.Background(), uuid.New(), "reset-token"))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "reset-token")
	}
}
