package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/contactshub/contacts-api/internal/httputil"
	"github.com/contactshub/contacts-api/internal/logging"
	"github.com/contactshub/contacts-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// AccountIDContextKey holds the authenticated account id.
const AccountIDContextKey ContextKey = "account_id"

// Middleware is the session guard. It is the only component that
// authenticates requests: a token must carry a valid signature, be unexpired,
// and bitwise-equal the account's currently recorded session token. Expired,
// logged-out and superseded tokens all fail identically.
type Middleware struct {
	tokens TokenService
	users  UserStore
	logger *logging.Logger
}

func NewMiddleware(tokens TokenService, users UserStore, logger *logging.Logger) *Middleware {
	return &Middleware{tokens: tokens, users: users, logger: logger}
}

// RequireAuth authenticates the request and attaches the account id to the
// context. Failure reasons stay distinct in logs but collapse to the same
// external 401 wherever distinguishing them would leak information.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "authorization header is missing", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}
		token := parts[1]

		claims, err := m.tokens.VerifyToken(token)
		if err != nil {
			// Expired and malformed collapse to the same response.
			m.logger.Debug("token verification failed", "error", err)
			respondInvalidToken(w)
			return
		}

		accountID, err := user.ParseID(claims.AccountID)
		if err != nil {
			respondInvalidToken(w)
			return
		}

		account, err := m.users.GetByID(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				respondInvalidToken(w)
				return
			}
			m.logger.Error("failed to load account for auth", "error", err)
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		// A signature-valid token is still rejected unless it equals the
		// single token the store currently recognizes. This is how logout and
		// a newer login revoke tokens that have not expired.
		if account.SessionToken == nil || *account.SessionToken != token {
			m.logger.Debug("token mismatch", "account_id", accountID)
			respondInvalidToken(w)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondInvalidToken(w http.ResponseWriter) {
	httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
}

// GetAccountIDFromContext extracts the authenticated account id.
func GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(AccountIDContextKey).(uuid.UUID)
	return accountID, ok
}
