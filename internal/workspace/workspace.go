// Package workspace owns the per-session output directories.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"interiordesigner/internal/apperr"
)

const (
	// OriginalDir holds copies of the uploaded photos.
	OriginalDir = "original"
	// GeneratedDir holds visualizations returned by the image editor.
	GeneratedDir = "generated"

	idLayout = "20060102_150405"
)

var idPattern = regexp.MustCompile(`^\d{8}_\d{6}_[0-9a-f]{8}$`)

// ErrInvalidID is returned when a session id does not look like one we issued.
var ErrInvalidID = errors.New("workspace: invalid session id")

// Workspace creates session directories under a root output directory.
type Workspace struct {
	root      string
	clock     clockwork.Clock
	newSuffix func() string
}

// New returns a workspace rooted at root.
func New(root string, clock clockwork.Clock) *Workspace {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Workspace{
		root:  root,
		clock: clock,
		newSuffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Root returns the output directory sessions live under.
func (w *Workspace) Root() string {
	return w.root
}

// Session is a created session directory.
type Session struct {
	ID        string
	Path      string
	CreatedAt time.Time
}

// Create makes a fresh session directory with its original/ and generated/
// subdirectories. It never reuses an existing directory.
func (w *Workspace) Create() (Session, error) {
	now := w.clock.Now()
	id := now.Format(idLayout) + "_" + w.newSuffix()

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return Session{}, apperr.IO("workspace", "create output dir", err)
	}
	dir := filepath.Join(w.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Session{}, apperr.IO("workspace", fmt.Sprintf("session directory %s already exists", id), err)
		}
		return Session{}, apperr.IO("workspace", "create session dir", err)
	}
	for _, sub := range []string{OriginalDir, GeneratedDir} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			return Session{}, apperr.IO("workspace", "create "+sub, err)
		}
	}
	return Session{ID: id, Path: dir, CreatedAt: now}, nil
}

// Resolve maps a session id to its directory, rejecting ids that could
// escape the output root.
func (w *Workspace) Resolve(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", ErrInvalidID
	}
	dir := filepath.Join(w.root, id)
	if _, err := os.Stat(dir); err != nil {
		return "", apperr.IO("workspace", "session "+id, err)
	}
	return dir, nil
}

// CopyOriginal copies src into original/ and returns the path relative to
// the session directory. index disambiguates uploads with the same name.
func (s Session) CopyOriginal(src string, index int) (string, error) {
	name := filepath.Base(src)
	if index > 0 {
		name = fmt.Sprintf("%02d-%s", index+1, name)
	}
	rel := filepath.Join(OriginalDir, name)

	in, err := os.Open(src)
	if err != nil {
		return "", apperr.IO("workspace", "open "+src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(filepath.Join(s.Path, rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.IO("workspace", "create "+rel, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", apperr.IO("workspace", "copy "+rel, err)
	}
	if err := out.Close(); err != nil {
		return "", apperr.IO("workspace", "close "+rel, err)
	}
	return rel, nil
}

// WriteGenerated stores a visualization under generated/. Files are written
// once; an existing name is an error.
func (s Session) WriteGenerated(name string, data []byte) (string, error) {
	rel := filepath.Join(GeneratedDir, filepath.Base(name))
	f, err := os.OpenFile(filepath.Join(s.Path, rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.IO("workspace", "create "+rel, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", apperr.IO("workspace", "write "+rel, err)
	}
	if err := f.Close(); err != nil {
		return "", apperr.IO("workspace", "close "+rel, err)
	}
	return rel, nil
}

// GeneratedName is the file name for recommendation idx's visualization.
func GeneratedName(idx int, category, ext string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(category)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "recommendation"
	}
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("rec-%02d-%s%s", idx+1, slug, ext)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
