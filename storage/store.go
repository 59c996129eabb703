package storage

import (
	"context"
	"errors"
	"io"
	"sort"

	"beatdrop/logger"
)

// Store merges the local tree with the optional remote bucket into one
// logical namespace per artist slug. remote is nil on local-only
// deployments; every read degrades gracefully when a backend is missing
// or erroring, so a half-configured install still lists what it can.
type Store struct {
	local  Backend
	remote Backend // nil when MinIO is not configured
}

// NewStore builds the merged store. remote may be nil.
func NewStore(local *Local, remote *Remote) *Store {
	s := &Store{local: local}
	if remote != nil {
		s.remote = remote
	}
	return s
}

// newStoreBackends wires arbitrary backends; used by tests.
func newStoreBackends(local, remote Backend) *Store {
	return &Store{local: local, remote: remote}
}

func (s *Store) backends() []Backend {
	// Local first: it wins merges by slug and by filename.
	b := []Backend{s.local}
	if s.remote != nil {
		b = append(b, s.remote)
	}
	return b
}

// ListArtists returns the sorted union of artist slugs across backends.
// A backend that fails to list contributes nothing; listing never fails.
func (s *Store) ListArtists(ctx context.Context) []string {
	seen := make(map[string]bool)
	var slugs []string
	for _, b := range s.backends() {
		found, err := b.ListArtists(ctx)
		if err != nil {
			logger.Warn("artist listing unavailable on one backend", logger.ErrorField(err))
			continue
		}
		for _, sl := range found {
			if !seen[sl] {
				seen[sl] = true
				slugs = append(slugs, sl)
			}
		}
	}
	sort.Strings(slugs)
	return slugs
}

// ListTracks returns the artist's merged track list, deduplicated by
// filename with the local copy taking precedence. found is false only
// when neither backend holds a namespace for the slug; an existing artist
// with zero eligible files yields (empty, true).
func (s *Store) ListTracks(ctx context.Context, artist string) (tracks []Entry, found bool) {
	seen := make(map[string]bool)
	for _, b := range s.backends() {
		entries, err := b.ListTracks(ctx, artist)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Warn("track listing unavailable on one backend",
					logger.String("artist", artist), logger.ErrorField(err))
			}
			continue
		}
		found = true
		for _, e := range entries {
			if seen[e.Filename] {
				continue
			}
			seen[e.Filename] = true
			tracks = append(tracks, e)
		}
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Filename < tracks[j].Filename })
	return tracks, found
}

// ListRootTracks returns audio files sitting directly under the media
// root / bucket prefix, merged with the same local precedence.
func (s *Store) ListRootTracks(ctx context.Context) []Entry {
	seen := make(map[string]bool)
	var tracks []Entry
	for _, b := range s.backends() {
		entries, err := b.ListRootTracks(ctx)
		if err != nil {
			logger.Warn("root listing unavailable on one backend", logger.ErrorField(err))
			continue
		}
		for _, e := range entries {
			if seen[e.Filename] {
				continue
			}
			seen[e.Filename] = true
			tracks = append(tracks, e)
		}
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Filename < tracks[j].Filename })
	return tracks
}

// Open resolves a track to whichever backend holds it, local first, and
// returns a reader over the requested range plus the total size.
func (s *Store) Open(ctx context.Context, artist, filename string, start, length int64) (io.ReadCloser, int64, error) {
	var lastErr error = ErrNotFound
	for _, b := range s.backends() {
		rc, size, err := b.Open(ctx, artist, filename, start, length)
		if err == nil {
			return rc, size, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
		}
	}
	return nil, 0, lastErr
}

// DeleteArtist removes the artist's namespace from both backends. It
// reports true if either side actually removed something. Local removal
// failures stay best-effort; a real remote error is surfaced.
func (s *Store) DeleteArtist(ctx context.Context, artist string) (bool, error) {
	localDeleted, _ := s.local.DeleteArtist(ctx, artist)

	remoteDeleted := false
	if s.remote != nil {
		var err error
		remoteDeleted, err = s.remote.DeleteArtist(ctx, artist)
		if err != nil {
			return localDeleted, err
		}
	}
	return localDeleted || remoteDeleted, nil
}
