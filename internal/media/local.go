package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader stores files on the local filesystem. The web UI uses it to
// stage uploaded photos before a run.
type LocalUploader struct {
	BaseDir string
}

// NewLocalUploader constructs an uploader that writes to the provided directory.
// If baseDir is empty, os.TempDir() is used.
func NewLocalUploader(baseDir string) (*LocalUploader, error) {
	dir := baseDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create local media dir: %w", err)
	}
	return &LocalUploader{BaseDir: dir}, nil
}

// Upload writes the incoming content to a new file and returns its absolute
// path as the key. The original base name is kept as a suffix so reports
// show a recognisable file name.
func (l *LocalUploader) Upload(_ context.Context, input UploadInput) (UploadResult, error) {
	if input.Body == nil {
		return UploadResult{}, fmt.Errorf("media: upload body is required")
	}

	base := sanitizeName(filepath.Base(input.Filename))
	tmpFile, err := os.CreateTemp(l.BaseDir, "upload-*-"+base)
	if err != nil {
		return UploadResult{}, fmt.Errorf("media: create temp file: %w", err)
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, input.Body); err != nil {
		os.Remove(tmpFile.Name())
		return UploadResult{}, fmt.Errorf("media: write temp file: %w", err)
	}

	return UploadResult{Key: tmpFile.Name()}, nil
}

func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if len(name) > 64 {
		name = name[len(name)-64:]
	}
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	return name
}
