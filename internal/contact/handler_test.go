package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactshub/contacts-api/internal/auth"
	"github.com/contactshub/contacts-api/internal/logging"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*Contact
}

func newMemStore() *memStore {
	return &memStore{contacts: make(map[uuid.UUID]*Contact)}
}

func (m *memStore) List(ctx context.Context, ownerID uuid.UUID) ([]Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	if result == nil {
		result = []Contact{}
	}
	return result, nil
}

func (m *memStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memStore) Create(ctx context.Context, ownerID uuid.UUID, name, email, phone string) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Contact{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.contacts[c.ID] = c
	copied := *c
	return &copied, nil
}

func (m *memStore) Update(ctx context.Context, ownerID, id uuid.UUID, update Update) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.Phone != nil {
		c.Phone = *update.Phone
	}
	copied := *c
	return &copied, nil
}

func (m *memStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	delete(m.contacts, id)
	copied := *c
	return &copied, nil
}

func (m *memStore) SetFavorite(ctx context.Context, ownerID, id uuid.UUID, favorite bool) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	c.Favorite = favorite
	copied := *c
	return &copied, nil
}

// newContactRouter mounts the handler behind a stand-in for the session guard
// that injects the given owner id.
func newContactRouter(store Store, ownerID uuid.UUID) http.Handler {
	handler := NewHandler(store, logging.NewLogger(true))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.AccountIDContextKey, ownerID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/{id}", handler.Get)
	r.Put("/{id}", handler.Update)
	r.Delete("/{id}", handler.Delete)
	r.Patch("/{id}/favorite", handler.SetFavorite)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateContactValidation(t *testing.T) {
	router := newContactRouter(newMemStore(), uuid.New())

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"email": "bob@example.com", "phone": "123456789"}},
		{"short name", map[string]any{"name": "Bob", "email": "bob@example.com", "phone": "123456789"}},
		{"bad email", map[string]any{"name": "Bob Smith", "email": "nope", "phone": "123456789"}},
		{"short phone", map[string]any{"name": "Bob Smith", "email": "bob@example.com", "phone": "123"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := doJSON(t, router, http.MethodPost, "/", tc.body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestContactCRUD(t *testing.T) {
	store := newMemStore()
	ownerID := uuid.New()
	router := newContactRouter(store, ownerID)

	res := doJSON(t, router, http.MethodPost, "/", map[string]any{
		"name":  "Bob Smith",
		"email": "bob@example.com",
		"phone": "123456789",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created Contact
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)

	res = doJSON(t, router, http.MethodGet, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = doJSON(t, router, http.MethodPut, "/"+created.ID.String(), map[string]any{"name": "Robert Smith"})
	require.Equal(t, http.StatusOK, res.Code)
	var updated Contact
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &updated))
	assert.Equal(t, "Robert Smith", updated.Name)

	res = doJSON(t, router, http.MethodPatch, "/"+created.ID.String()+"/favorite", map[string]any{"favorite": true})
	require.Equal(t, http.StatusOK, res.Code)
	var favorited Contact
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &favorited))
	assert.True(t, favorited.Favorite)

	res = doJSON(t, router, http.MethodDelete, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = doJSON(t, router, http.MethodGet, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUpdateContactRequiresAField(t *testing.T) {
	store := newMemStore()
	ownerID := uuid.New()
	router := newContactRouter(store, ownerID)

	created, err := store.Create(context.Background(), ownerID, "Bob Smith", "bob@example.com", "123456789")
	require.NoError(t, err)

	res := doJSON(t, router, http.MethodPut, "/"+created.ID.String(), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestContactsAreOwnerScoped(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	stranger := uuid.New()

	created, err := store.Create(context.Background(), owner, "Bob Smith", "bob@example.com", "123456789")
	require.NoError(t, err)

	strangerRouter := newContactRouter(store, stranger)

	// Another account sees an empty list and cannot reach the record by id.
	res := doJSON(t, strangerRouter, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var listed []Contact
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &listed))
	assert.Empty(t, listed)

	res = doJSON(t, strangerRouter, http.MethodGet, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = doJSON(t, strangerRouter, http.MethodDelete, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	// The record is still there for its owner.
	ownerRouter := newContactRouter(store, owner)
	res = doJSON(t, ownerRouter, http.MethodGet, "/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestMalformedContactIDBehavesLikeMissing(t *testing.T) {
	router := newContactRouter(newMemStore(), uuid.New())

	res := doJSON(t, router, http.MethodGet, "/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
