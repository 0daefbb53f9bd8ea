package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// Archiver mirrors a session's files through an Uploader.
type Archiver struct {
	uploader Uploader
}

// NewArchiver returns an archiver, or nil when u is disabled.
func NewArchiver(u Uploader) *Archiver {
	if IsDisabled(u) {
		return nil
	}
	return &Archiver{uploader: u}
}

// Archive uploads each file (relative to dir) under <sessionID>/<file> and
// returns their URLs. It stops at the first failure.
func (a *Archiver) Archive(ctx context.Context, sessionID, dir string, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, rel := range files {
		url, err := a.archiveFile(ctx, sessionID, dir, rel)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (a *Archiver) archiveFile(ctx context.Context, sessionID, dir, rel string) (string, error) {
	f, err := os.Open(filepath.Join(dir, rel))
	if err != nil {
		return "", fmt.Errorf("media: open %s: %w", rel, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("media: stat %s: %w", rel, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(rel))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := a.uploader.Upload(ctx, UploadInput{
		Key:         path.Join(sessionID, filepath.ToSlash(rel)),
		Filename:    filepath.Base(rel),
		ContentType: contentType,
		Body:        f,
		Size:        info.Size(),
	})
	if err != nil {
		return "", fmt.Errorf("media: upload %s: %w", rel, err)
	}
	if res.URL != "" {
		return res.URL, nil
	}
	return res.Key, nil
}
