// Package storage unifies the two places tracks can live - a local
// directory tree and a MinIO bucket - behind one merged view keyed by
// artist slug.
package storage

import (
	"context"
	"errors"
	"io"
)

// RemotePrefix is the fixed root prefix for track objects in the bucket.
const RemotePrefix = "songs"

// AudioExt is the only file extension served or accepted.
const AudioExt = ".mp3"

// ErrNotFound reports that a backend holds no namespace or file matching
// the request. The merged store folds it into "this backend has nothing".
var ErrNotFound = errors.New("storage: not found")

// Entry is one stored track file as seen by a single backend.
type Entry struct {
	Filename string
	Size     int64
	// Path locates the bytes inside the owning backend: an absolute
	// filesystem path for local entries, an object key for remote ones.
	Path   string
	Remote bool
}

// Backend is the read/delete surface shared by both physical stores. All
// artist lookups take canonical slugs; each implementation is responsible
// for mapping a slug onto its own namespace layout.
type Backend interface {
	// ListArtists enumerates the slugs of every artist namespace.
	ListArtists(ctx context.Context) ([]string, error)

	// ListTracks enumerates the audio files under one artist. Returns
	// ErrNotFound when the backend holds no namespace for the slug; an
	// existing namespace with zero audio files yields an empty slice.
	ListTracks(ctx context.Context, artist string) ([]Entry, error)

	// ListRootTracks enumerates audio files sitting directly under the
	// backend's root, outside any artist namespace.
	ListRootTracks(ctx context.Context) ([]Entry, error)

	// Open returns a reader over [start, start+length) of the named track
	// together with the file's total size. length < 0 reads to the end.
	// The caller must close the reader.
	Open(ctx context.Context, artist, filename string, start, length int64) (io.ReadCloser, int64, error)

	// DeleteArtist removes the artist's entire namespace. Returns whether
	// anything was actually removed.
	DeleteArtist(ctx context.Context, artist string) (bool, error)
}
