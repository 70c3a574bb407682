package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/contactshub/contacts-api/internal/auth"
	"github.com/contactshub/contacts-api/internal/httputil"
	"github.com/contactshub/contacts-api/internal/logging"
)

// Handler contains the HTTP handlers for contact endpoints. All routes sit
// behind the session guard; the owner id always comes from the request
// context, never from the payload.
type Handler struct {
	store    Store
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateContactRequest mirrors the create schema: name at least 5 characters,
// a well-formed email, a phone of at least 9 characters.
type CreateContactRequest struct {
	Name  string `json:"name" validate:"required,min=5"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=9"`
}

// UpdateContactRequest carries optional fields; present ones must satisfy the
// same rules as on create.
type UpdateContactRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=5"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,min=9"`
}

// FavoriteRequest toggles the favorite flag.
type FavoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

// List handles GET /api/contacts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetAccountIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
		return
	}

	contacts, err := h.store.List(r.Context(), ownerID)
	if err != nil {
		logger.Error("failed to list contacts", "error", err)
		respondInternalError(w)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Get handles GET /api/contacts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, id, ok := h.ownerAndContactID(w, r)
	if !ok {
		return
	}

	c, err := h.store.GetByID(r.Context(), ownerID, id)
	if err != nil {
		h.respondStoreError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Create handles POST /api/contacts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, ok := auth.GetAccountIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
		return
	}

	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.RespondErrorWithCode(w, validationMessage(err), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	c, err := h.store.Create(r.Context(), ownerID, req.Name, req.Email, req.Phone)
	if err != nil {
		logger.Error("failed to create contact", "error", err)
		respondInternalError(w)
		return
	}

	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Update handles PUT /api/contacts/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, id, ok := h.ownerAndContactID(w, r)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	update := Update{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if update.Empty() {
		httputil.RespondErrorWithCode(w, "body must have at least one field", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.RespondErrorWithCode(w, validationMessage(err), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	c, err := h.store.Update(r.Context(), ownerID, id, update)
	if err != nil {
		h.respondStoreError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Delete handles DELETE /api/contacts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, id, ok := h.ownerAndContactID(w, r)
	if !ok {
		return
	}

	c, err := h.store.Delete(r.Context(), ownerID, id)
	if err != nil {
		h.respondStoreError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// SetFavorite handles PATCH /api/contacts/{id}/favorite.
func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ownerID, id, ok := h.ownerAndContactID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.RespondErrorWithCode(w, validationMessage(err), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	c, err := h.store.SetFavorite(r.Context(), ownerID, id, *req.Favorite)
	if err != nil {
		h.respondStoreError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// ownerAndContactID pulls the owner from the context and the contact id from
// the URL. A malformed id answers 404: whether such a record exists is not
// the client's to learn from the error shape.
func (h *Handler) ownerAndContactID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := auth.GetAccountIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeNotFound, http.StatusNotFound)
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, id, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, logger *logging.Logger, err error) {
	if errors.Is(err, ErrNotFound) {
		httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}
	logger.Error("contact store error", "error", err)
	respondInternalError(w)
}

// validationMessage flattens validator errors into one human-readable string.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "validation failed"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email address")
		case "min":
			messages = append(messages, field+" must be at least "+fieldErr.Param()+" characters")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return strings.Join(messages, ", ")
}

func respondInternalError(w http.ResponseWriter) {
	httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
}
