package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactshub/contacts-api/internal/avatar"
	"github.com/contactshub/contacts-api/internal/logging"
)

// newAvatarRequest builds an authenticated multipart request carrying one file
// under the given field name.
func newAvatarRequest(t *testing.T, accountID uuid.UUID, fieldName, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/avatars", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	ctx := context.WithValue(req.Context(), AccountIDContextKey, accountID)
	return req.WithContext(ctx)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestUpdateAvatarMissingFile(t *testing.T) {
	svc, store, _ := newTestService(t, &fakeMailer{})
	handler := NewHandler(svc, t.TempDir(), logging.NewLogger(true))

	u, err := store.Create(context.Background(), "alice@example.com", "hash", "tok")
	require.NoError(t, err)

	// The form carries a file, but not under the expected field.
	req := newAvatarRequest(t, u.ID, "photo", "portrait.png", pngBytes(t, 10, 10))
	res := httptest.NewRecorder()
	handler.UpdateAvatar(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "missing_file", payload["code"])
	assert.Nil(t, store.byEmail(t, "alice@example.com").AvatarURL)
}

func TestUpdateAvatarStoresNormalizedFile(t *testing.T) {
	tmpDir := t.TempDir()
	avatarDir := t.TempDir()

	store := newMemStore()
	pipeline := avatar.NewPipeline(
		avatar.NewImagingProcessor(avatar.Width, avatar.Height),
		avatarDir,
		"/avatars",
	)
	svc := NewService(store, newFakeResetStore(), newTestTokenService(t), &fakeMailer{}, pipeline, logging.NewLogger(true), time.Hour)
	handler := NewHandler(svc, tmpDir, logging.NewLogger(true))

	u, err := store.Create(context.Background(), "alice@example.com", "hash", "tok")
	require.NoError(t, err)

	req := newAvatarRequest(t, u.ID, "avatar", "portrait.png", pngBytes(t, 400, 300))
	res := httptest.NewRecorder()
	handler.UpdateAvatar(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var payload AvatarResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	want := "/avatars/" + u.ID.String() + "_portrait.png"
	assert.Equal(t, want, payload.AvatarURL)

	// The reference is recorded on the account and the file exists.
	account := store.byEmail(t, "alice@example.com")
	require.NotNil(t, account.AvatarURL)
	assert.Equal(t, want, *account.AvatarURL)

	_, err = os.Stat(filepath.Join(avatarDir, u.ID.String()+"_portrait.png"))
	assert.NoError(t, err)

	// The spooled upload is gone once the pipeline has run.
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateAvatarUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeMailer{})
	handler := NewHandler(svc, t.TempDir(), logging.NewLogger(true))

	req := newAvatarRequest(t, uuid.New(), "avatar", "portrait.png", pngBytes(t, 10, 10))
	res := httptest.NewRecorder()
	handler.UpdateAvatar(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "invalid_token", payload["code"])
}
