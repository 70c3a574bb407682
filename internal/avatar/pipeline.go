package avatar

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Canonical avatar dimensions. Uploads are forced to this size regardless of
// their original aspect ratio.
const (
	Width  = 250
	Height = 250
)

// Processor reads an image from srcPath, normalizes it and writes the result
// to dstPath.
type Processor interface {
	Process(srcPath, dstPath string) error
}

// ImagingProcessor resizes images to fixed dimensions using the imaging
// library. The output format follows the destination file extension.
type ImagingProcessor struct {
	width  int
	height int
}

func NewImagingProcessor(width, height int) *ImagingProcessor {
	return &ImagingProcessor{width: width, height: height}
}

func (p *ImagingProcessor) Process(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	resized := imaging.Resize(img, p.width, p.height, imaging.Lanczos)

	if err := imaging.Save(resized, dstPath); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	return nil
}

// Pipeline turns an uploaded temporary file into a permanently stored,
// normalized avatar and returns its public reference.
type Pipeline struct {
	processor  Processor
	avatarDir  string
	publicPath string
}

func NewPipeline(processor Processor, avatarDir, publicPath string) *Pipeline {
	return &Pipeline{
		processor:  processor,
		avatarDir:  avatarDir,
		publicPath: publicPath,
	}
}

// Store processes the temporary upload and writes it under a name derived from
// the account id and the original filename, so accounts can never collide.
// The temporary file is removed on every exit path. A permanent file written
// before a later failure is left behind; the next successful avatar change
// overwrites it.
func (p *Pipeline) Store(accountID uuid.UUID, tmpPath, originalName string) (string, error) {
	defer os.Remove(tmpPath)

	if err := os.MkdirAll(p.avatarDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s", accountID, sanitizeFilename(originalName))
	dstPath := filepath.Join(p.avatarDir, filename)

	if err := p.processor.Process(tmpPath, dstPath); err != nil {
		return "", err
	}

	return path.Join(p.publicPath, filename), nil
}

// sanitizeFilename strips path components and replaces anything outside a
// conservative character set.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '-'
	}, name)
}
