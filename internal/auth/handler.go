package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/contactshub/contacts-api/internal/httputil"
	"github.com/contactshub/contacts-api/internal/logging"
	"github.com/contactshub/contacts-api/internal/user"
)

// maxAvatarUploadSize caps multipart parsing for avatar uploads.
const maxAvatarUploadSize = 10 << 20 // 10 MB

// Handler contains the HTTP handlers for the account endpoints.
type Handler struct {
	service *Service
	tmpDir  string
	logger  *logging.Logger
}

func NewHandler(service *Service, tmpDir string, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		tmpDir:  tmpDir,
		logger:  logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubscriptionRequest represents the subscription change request body.
type SubscriptionRequest struct {
	Subscription string `json:"subscription"`
}

// ResendVerificationRequest represents the resend-verification request body.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordRequest represents the password reset initiation body.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation body.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// AccountSummary is the outward account representation. Credential and
// session fields are never part of it.
type AccountSummary struct {
	Email        string  `json:"email"`
	Subscription string  `json:"subscription"`
	AvatarURL    *string `json:"avatarURL,omitempty"`
}

// AccountResponse wraps an account summary.
type AccountResponse struct {
	User AccountSummary `json:"user"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Token string         `json:"token"`
	User  AccountSummary `json:"user"`
}

// AvatarResponse represents a successful avatar change.
type AvatarResponse struct {
	AvatarURL string `json:"avatarURL"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func summarize(u *user.User) AccountSummary {
	return AccountSummary{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists", "email", req.Email)
			httputil.RespondErrorWithCode(w, "user already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case isValidationError(err):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("registration failed", "error", err)
			respondInternalError(w)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)
	httputil.RespondJSON(w, AccountResponse{User: summarize(newUser)}, http.StatusCreated)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, "email and password are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			// One message for unknown email and wrong password.
			httputil.RespondErrorWithCode(w, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailNotVerified):
			httputil.RespondErrorWithCode(w, ErrEmailNotVerified.Error(), httputil.CodeEmailNotVerified, http.StatusUnauthorized)
		default:
			logger.Error("login failed", "error", err)
			respondInternalError(w)
		}
		return
	}

	logger.Info("user logged in", "user_id", account.ID)
	httputil.RespondJSON(w, LoginResponse{Token: token, User: summarize(account)}, http.StatusOK)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondInvalidToken(w)
		return
	}

	if err := h.service.Logout(r.Context(), accountID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondInvalidToken(w)
			return
		}
		logger.Error("logout failed", "error", err)
		respondInternalError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Current handles GET /api/auth/current.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondInvalidToken(w)
		return
	}

	account, err := h.service.Current(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondInvalidToken(w)
			return
		}
		logger.Error("failed to load current account", "error", err)
		respondInternalError(w)
		return
	}

	httputil.RespondJSON(w, summarize(account), http.StatusOK)
}

// UpdateSubscription handles PATCH /api/auth.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondInvalidToken(w)
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	account, err := h.service.UpdateSubscription(r.Context(), accountID, req.Subscription)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSubscription):
			httputil.RespondErrorWithCode(w, ErrInvalidSubscription.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to update subscription", "error", err)
			respondInternalError(w)
		}
		return
	}

	httputil.RespondJSON(w, AccountResponse{User: summarize(account)}, http.StatusOK)
}

// UpdateAvatar handles PATCH /api/auth/avatars. The upload is spooled to the
// temporary directory, normalized by the avatar pipeline and recorded on the
// account. The temporary file is gone by the time the pipeline returns,
// success or failure.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := GetAccountIDFromContext(r.Context())
	if !ok {
		respondInvalidToken(w)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarUploadSize); err != nil {
		httputil.RespondErrorWithCode(w, "invalid multipart form", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.RespondErrorWithCode(w, ErrAvatarFileMissing.Error(), httputil.CodeMissingFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	tmpPath, err := h.spoolUpload(file, header.Filename)
	if err != nil {
		logger.Error("failed to spool avatar upload", "error", err)
		respondInternalError(w)
		return
	}

	avatarURL, err := h.service.UpdateAvatar(r.Context(), accountID, tmpPath, header.Filename)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondInvalidToken(w)
			return
		}
		logger.Error("failed to update avatar", "error", err)
		respondInternalError(w)
		return
	}

	logger.Info("avatar updated", "user_id", accountID, "avatar_url", avatarURL)
	httputil.RespondJSON(w, AvatarResponse{AvatarURL: avatarURL}, http.StatusOK)
}

// VerifyEmail handles GET /api/auth/verify/{token}. The token is consumed on
// first use; replaying the link answers 404.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("email verification failed", "error", err)
		respondInternalError(w)
		return
	}

	httputil.RespondJSON(w, MessageResponse{Message: "Verification successful"}, http.StatusOK)
}

// ResendVerification handles POST /api/auth/verify. A mail delivery failure
// here is surfaced as a 500, unlike the fire-and-forget send at registration.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyVerified):
			httputil.RespondErrorWithCode(w, ErrAlreadyVerified.Error(), httputil.CodeAlreadyVerified, http.StatusBadRequest)
		default:
			logger.Error("failed to resend verification email", "error", err)
			respondInternalError(w)
		}
		return
	}

	httputil.RespondJSON(w, MessageResponse{Message: "Verification email sent"}, http.StatusOK)
}

// ForgotPassword handles POST /api/auth/forgot-password. The answer is the
// same whether or not the email exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	_ = h.service.RequestPasswordReset(r.Context(), req.Email)

	httputil.RespondJSON(w, MessageResponse{Message: "If that email is registered, a reset link is on its way"}, http.StatusOK)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrResetTokenNotFound):
			httputil.RespondErrorWithCode(w, ErrResetTokenNotFound.Error(), httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to reset password", "error", err)
			respondInternalError(w)
		}
		return
	}

	httputil.RespondJSON(w, MessageResponse{Message: "Password has been reset"}, http.StatusOK)
}

// spoolUpload writes the multipart file to the temporary directory, keeping
// the original extension so the pipeline can detect the image format.
func (h *Handler) spoolUpload(file io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create tmp dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(h.tmpDir, "avatar-*"+filepath.Ext(originalName))
	if err != nil {
		return "", fmt.Errorf("failed to create tmp file: %w", err)
	}

	if _, err := io.Copy(tmpFile, file); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write tmp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to close tmp file: %w", err)
	}

	return tmpFile.Name(), nil
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrInvalidEmailFormat)
}

func respondInternalError(w http.ResponseWriter) {
	httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
}
