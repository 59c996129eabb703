package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend standing in for the bucket side in
// merge tests: artist slug -> filename -> content.
type fakeBackend struct {
	artists map[string]map[string]string
	listErr error
	delErr  error
}

func (f *fakeBackend) ListArtists(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var slugs []string
	for s := range f.artists {
		slugs = append(slugs, s)
	}
	return slugs, nil
}

func (f *fakeBackend) ListTracks(ctx context.Context, artist string) ([]Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	files, ok := f.artists[artist]
	if !ok {
		return nil, ErrNotFound
	}
	var entries []Entry
	for name, content := range files {
		entries = append(entries, Entry{
			Filename: name,
			Size:     int64(len(content)),
			Path:     RemotePrefix + "/" + artist + "/" + name,
			Remote:   true,
		})
	}
	return entries, nil
}

func (f *fakeBackend) ListRootTracks(ctx context.Context) ([]Entry, error) {
	return nil, f.listErr
}

func (f *fakeBackend) Open(ctx context.Context, artist, filename string, start, length int64) (io.ReadCloser, int64, error) {
	content, ok := f.artists[artist][filename]
	if !ok {
		return nil, 0, ErrNotFound
	}
	size := int64(len(content))
	end := size
	if length >= 0 && start+length < size {
		end = start + length
	}
	return io.NopCloser(strings.NewReader(content[start:end])), size, nil
}

func (f *fakeBackend) DeleteArtist(ctx context.Context, artist string) (bool, error) {
	if f.delErr != nil {
		return false, f.delErr
	}
	if _, ok := f.artists[artist]; !ok {
		return false, nil
	}
	delete(f.artists, artist)
	return true, nil
}

func TestStoreMergePrecedence(t *testing.T) {
	t.Parallel()

	local := newTestLocal(t)
	writeFile(t, filepath.Join(local.Root(), "Jay Beats", "shared.mp3"), "local copy")
	writeFile(t, filepath.Join(local.Root(), "Jay Beats", "only-local.mp3"), "l")

	remote := &fakeBackend{artists: map[string]map[string]string{
		"jay-beats": {
			"shared.mp3":      "remote copy!!",
			"only-remote.mp3": "r",
		},
		"cloud-only": {"drift.mp3": "rrr"},
	}}
	store := newStoreBackends(local, remote)
	ctx := context.Background()

	slugs := store.ListArtists(ctx)
	require.Equal(t, []string{"cloud-only", "jay-beats"}, slugs)

	tracks, found := store.ListTracks(ctx, "jay-beats")
	require.True(t, found)
	require.Len(t, tracks, 3)

	byName := map[string]Entry{}
	for _, tr := range tracks {
		byName[tr.Filename] = tr
	}
	// Identical filename on both sides: exactly one entry, the local one.
	require.False(t, byName["shared.mp3"].Remote)
	require.Equal(t, int64(len("local copy")), byName["shared.mp3"].Size)
	require.False(t, byName["only-local.mp3"].Remote)
	require.True(t, byName["only-remote.mp3"].Remote)

	rc, size, err := store.Open(ctx, "jay-beats", "shared.mp3", 0, -1)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "local copy", string(body))
	require.Equal(t, int64(len("local copy")), size)

	// Remote-only tracks resolve through the fallback.
	rc, _, err = store.Open(ctx, "cloud-only", "drift.mp3", 0, -1)
	require.NoError(t, err)
	rc.Close()
}

func TestStoreListTracksNotFoundVsEmpty(t *testing.T) {
	t.Parallel()

	local := newTestLocal(t)
	require.NoError(t, local.EnsureArtist("empty-artist"))

	store := newStoreBackends(local, &fakeBackend{artists: map[string]map[string]string{}})
	ctx := context.Background()

	tracks, found := store.ListTracks(ctx, "empty-artist")
	require.True(t, found)
	require.Empty(t, tracks)

	_, found = store.ListTracks(ctx, "nobody")
	require.False(t, found)
}

func TestStoreBackendFailureIsEmpty(t *testing.T) {
	t.Parallel()

	local := newTestLocal(t)
	writeFile(t, filepath.Join(local.Root(), "jay-beats", "loop.mp3"), "x")

	store := newStoreBackends(local, &fakeBackend{listErr: errors.New("connection refused")})
	ctx := context.Background()

	// A failing backend contributes nothing; it never fails the call.
	require.Equal(t, []string{"jay-beats"}, store.ListArtists(ctx))

	tracks, found := store.ListTracks(ctx, "jay-beats")
	require.True(t, found)
	require.Len(t, tracks, 1)
}

func TestStoreDeleteArtist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("remote only still succeeds", func(t *testing.T) {
		local := newTestLocal(t)
		remote := &fakeBackend{artists: map[string]map[string]string{
			"cloud-only": {"drift.mp3": "r"},
		}}
		store := newStoreBackends(local, remote)

		deleted, err := store.DeleteArtist(ctx, "cloud-only")
		require.NoError(t, err)
		require.True(t, deleted)
	})

	t.Run("absent everywhere is not found", func(t *testing.T) {
		local := newTestLocal(t)
		store := newStoreBackends(local, &fakeBackend{artists: map[string]map[string]string{}})

		deleted, err := store.DeleteArtist(ctx, "nobody")
		require.NoError(t, err)
		require.False(t, deleted)
	})

	t.Run("remote error is surfaced", func(t *testing.T) {
		local := newTestLocal(t)
		store := newStoreBackends(local, &fakeBackend{delErr: errors.New("access denied")})

		_, err := store.DeleteArtist(ctx, "jay-beats")
		require.Error(t, err)
	})

	t.Run("both sides removed", func(t *testing.T) {
		local := newTestLocal(t)
		writeFile(t, filepath.Join(local.Root(), "Jay Beats", "loop.mp3"), "x")
		remote := &fakeBackend{artists: map[string]map[string]string{
			"jay-beats": {"loop.mp3": "r"},
		}}
		store := newStoreBackends(local, remote)

		deleted, err := store.DeleteArtist(ctx, "jay-beats")
		require.NoError(t, err)
		require.True(t, deleted)
		_, found := store.ListTracks(ctx, "jay-beats")
		require.False(t, found)
	})
}
