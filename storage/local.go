package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"beatdrop/slug"
)

// Local serves tracks from a directory tree: one folder per artist, audio
// files inside. Folders may carry human-readable names (the tree predates
// slug-formatted uploads), so every lookup matches folders by normalized
// name rather than assuming the folder is already a slug.
type Local struct {
	root string // absolute media root
}

// NewLocal creates the local backend rooted at dir, creating it if absent.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving media root %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating media root %q: %w", abs, err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute media root directory.
func (l *Local) Root() string {
	return l.root
}

// SecurePath joins caller-supplied segments under the media root and
// verifies the resolved path cannot escape it. Segments are untrusted.
func (l *Local) SecurePath(segments ...string) (string, error) {
	joined := filepath.Join(append([]string{l.root}, segments...)...)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if resolved != l.root && !strings.HasPrefix(resolved, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes media root", strings.Join(segments, "/"))
	}
	return resolved, nil
}

// resolveDir finds the actual folder whose normalized name equals the
// slug. First match wins.
func (l *Local) resolveDir(artist string) (string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() && slug.Normalize(e.Name()) == artist {
			return filepath.Join(l.root, e.Name()), nil
		}
	}
	return "", ErrNotFound
}

// ListArtists returns the normalized slug of every artist folder. Two
// folders normalizing to the same slug are folded into one entry.
func (l *Local) ListArtists(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var slugs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s := slug.Normalize(e.Name())
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		slugs = append(slugs, s)
	}
	return slugs, nil
}

// ListTracks returns the audio files under the artist's folder.
func (l *Local) ListTracks(ctx context.Context, artist string) ([]Entry, error) {
	dir, err := l.resolveDir(artist)
	if err != nil {
		return nil, err
	}
	return l.listDir(dir)
}

// ListRootTracks returns audio files sitting directly under the media
// root, outside any artist folder.
func (l *Local) ListRootTracks(ctx context.Context) ([]Entry, error) {
	return l.listDir(l.root)
}

func (l *Local) listDir(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tracks []Entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), AudioExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		tracks = append(tracks, Entry{
			Filename: e.Name(),
			Size:     info.Size(),
			Path:     filepath.Join(dir, e.Name()),
		})
	}
	return tracks, nil
}

// Open returns a reader over [start, start+length) of the track plus its
// total size. length < 0 reads to the end of the file.
func (l *Local) Open(ctx context.Context, artist, filename string, start, length int64) (io.ReadCloser, int64, error) {
	if filename != filepath.Base(filename) {
		return nil, 0, ErrNotFound
	}
	dir, err := l.resolveDir(artist)
	if err != nil {
		return nil, 0, err
	}
	path, err := l.SecurePath(filepath.Base(dir), filename)
	if err != nil {
		return nil, 0, err
	}
	return l.openFile(path, start, length)
}

// OpenPath serves an already-validated absolute path under the media root.
// Used by the streaming handler after its own containment check.
func (l *Local) OpenPath(path string, start, length int64) (io.ReadCloser, int64, error) {
	return l.openFile(path, start, length)
}

func (l *Local) openFile(path string, start, length int64) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	size := info.Size()
	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			f.Close()
			return nil, 0, err
		}
	}
	if length < 0 {
		return f, size, nil
	}
	return &limitedFile{Reader: io.LimitReader(f, length), f: f}, size, nil
}

// DeleteArtist removes the matching folder. Removal failures (read-only
// deployments) are swallowed; the caller only learns nothing was deleted.
func (l *Local) DeleteArtist(ctx context.Context, artist string) (bool, error) {
	dir, err := l.resolveDir(artist)
	if err != nil {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, nil
	}
	return true, nil
}

// EnsureArtist creates the slug-named folder so the namespace exists even
// before (or without) any track surviving the upload filter.
func (l *Local) EnsureArtist(artist string) error {
	if !slug.IsValid(artist) {
		return fmt.Errorf("invalid artist slug %q", artist)
	}
	dir, err := l.SecurePath(artist)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteTrack persists one uploaded file under root/<slug>/<filename>,
// creating the artist folder on first upload. The destination is
// re-validated against the root before any write.
func (l *Local) WriteTrack(ctx context.Context, artist, filename string, r io.Reader) error {
	if !slug.IsValid(artist) {
		return fmt.Errorf("invalid artist slug %q", artist)
	}
	if !strings.HasSuffix(strings.ToLower(filename), AudioExt) {
		return fmt.Errorf("filename %q is not a %s file", filename, AudioExt)
	}
	// A filename with path components could climb out of the artist's
	// folder even while staying inside the root.
	if filename != filepath.Base(filename) {
		return fmt.Errorf("filename %q contains path components", filename)
	}
	dest, err := l.SecurePath(artist, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating artist directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %q: %w", filename, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dest)
		return fmt.Errorf("writing %q: %w", filename, err)
	}
	return nil
}

// limitedFile pairs a LimitReader with the file it draws from so Close
// reaches the underlying descriptor.
type limitedFile struct {
	io.Reader
	f *os.File
}

func (lf *limitedFile) Close() error {
	return lf.f.Close()
}
