package avatar

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage writes a PNG of the given dimensions and returns its path.
func writeTestImage(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	path := filepath.Join(dir, "upload.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	avatarDir := t.TempDir()
	p := NewPipeline(NewImagingProcessor(Width, Height), avatarDir, "/avatars")
	return p, avatarDir
}

func TestStoreNormalizesDimensions(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		height int
	}{
		{"landscape", 640, 480},
		{"portrait", 300, 900},
		{"tiny", 10, 10},
		{"exact", 250, 250},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, avatarDir := newTestPipeline(t)
			tmpPath := writeTestImage(t, t.TempDir(), tc.width, tc.height)
			accountID := uuid.New()

			ref, err := p.Store(accountID, tmpPath, "upload.png")
			require.NoError(t, err)
			assert.Equal(t, "/avatars/"+accountID.String()+"_upload.png", ref)

			stored, err := imaging.Open(filepath.Join(avatarDir, accountID.String()+"_upload.png"))
			require.NoError(t, err)
			bounds := stored.Bounds()
			assert.Equal(t, Width, bounds.Dx())
			assert.Equal(t, Height, bounds.Dy())
		})
	}
}

func TestStoreRemovesTempFileOnSuccess(t *testing.T) {
	p, _ := newTestPipeline(t)
	tmpPath := writeTestImage(t, t.TempDir(), 100, 100)

	_, err := p.Store(uuid.New(), tmpPath, "upload.png")
	require.NoError(t, err)

	_, err = os.Stat(tmpPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreRemovesTempFileOnFailure(t *testing.T) {
	avatarDir := t.TempDir()
	p := NewPipeline(failingProcessor{}, avatarDir, "/avatars")
	tmpPath := writeTestImage(t, t.TempDir(), 100, 100)

	_, err := p.Store(uuid.New(), tmpPath, "upload.png")
	require.Error(t, err)

	_, err = os.Stat(tmpPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreRejectsNonImage(t *testing.T) {
	p, _ := newTestPipeline(t)

	tmpPath := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(tmpPath, []byte("definitely not an image"), 0o644))

	_, err := p.Store(uuid.New(), tmpPath, "upload.png")
	assert.Error(t, err)

	_, err = os.Stat(tmpPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreNamesAreAccountScoped(t *testing.T) {
	p, avatarDir := newTestPipeline(t)

	first := uuid.New()
	second := uuid.New()

	tmp1 := writeTestImage(t, t.TempDir(), 100, 100)
	tmp2 := writeTestImage(t, t.TempDir(), 100, 100)

	ref1, err := p.Store(first, tmp1, "avatar.png")
	require.NoError(t, err)
	ref2, err := p.Store(second, tmp2, "avatar.png")
	require.NoError(t, err)

	// Same original filename, different accounts, no collision.
	assert.NotEqual(t, ref1, ref2)

	entries, err := os.ReadDir(avatarDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.png", sanitizeFilename("photo.png"))
	assert.Equal(t, "photo.png", sanitizeFilename("../../etc/photo.png"))
	assert.Equal(t, "my-photo--1-.png", sanitizeFilename("my photo (1).png"))
}

type failingProcessor struct{}

func (failingProcessor) Process(srcPath, dstPath string) error {
	return errors.New("processing failed")
}
