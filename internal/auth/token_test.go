package auth

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func tokenBackends(t *testing.T) map[string]func(key []byte) (TokenService, error) {
	t.Helper()
	return map[string]func(key []byte) (TokenService, error){
		"paseto": func(key []byte) (TokenService, error) { return NewPasetoService(key) },
		"jwt":    func(key []byte) (TokenService, error) { return NewJWTService(key) },
	}
}

func TestTokenRoundTrip(t *testing.T) {
	for name, newService := range tokenBackends(t) {
		t.Run(name, func(t *testing.T) {
			svc, err := newService(randomKey(t))
			require.NoError(t, err)

			accountID := uuid.New()
			token, err := svc.CreateToken(accountID, time.Hour)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, accountID.String(), claims.AccountID)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	for name, newService := range tokenBackends(t) {
		t.Run(name, func(t *testing.T) {
			svc, err := newService(randomKey(t))
			require.NoError(t, err)

			token, err := svc.CreateToken(uuid.New(), -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.Error(t, err)
		})
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	for name, newService := range tokenBackends(t) {
		t.Run(name, func(t *testing.T) {
			svc, err := newService(randomKey(t))
			require.NoError(t, err)

			_, err = svc.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenRejectsWrongKey(t *testing.T) {
	for name, newService := range tokenBackends(t) {
		t.Run(name, func(t *testing.T) {
			issuer, err := newService(randomKey(t))
			require.NoError(t, err)
			verifier, err := newService(randomKey(t))
			require.NoError(t, err)

			token, err := issuer.CreateToken(uuid.New(), time.Hour)
			require.NoError(t, err)

			_, err = verifier.VerifyToken(token)
			assert.Error(t, err)
		})
	}
}

func TestTokenServiceRequires32ByteKey(t *testing.T) {
	for name, newService := range tokenBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := newService([]byte("too-short"))
			assert.Error(t, err)
		})
	}
}
