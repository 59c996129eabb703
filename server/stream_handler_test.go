package server_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"beatdrop/server"
	"beatdrop/storage"
)

func newStreamEnv(t *testing.T) (*server.StreamHandler, *storage.Local, string) {
	t.Helper()

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	content := strings.Repeat("0123456789", 100) // 1000 bytes
	dir := filepath.Join(local.Root(), "jay-beats")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.mp3"), []byte(content), 0644))

	return server.NewStreamHandler(local, nil), local, content
}

func streamGet(t *testing.T, h *server.StreamHandler, path, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStreamFullBody(t *testing.T) {
	t.Parallel()

	h, _, content := newStreamEnv(t)

	rec := streamGet(t, h, "/api/audio/jay-beats/loop.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1000", rec.Header().Get("Content-Length"))
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, content, rec.Body.String())
}

func TestStreamRanges(t *testing.T) {
	t.Parallel()

	h, _, content := newStreamEnv(t)

	tcases := []struct {
		rangeHeader  string
		contentRange string
		body         string
	}{
		{rangeHeader: "bytes=0-99", contentRange: "bytes 0-99/1000", body: content[:100]},
		{rangeHeader: "bytes=900-", contentRange: "bytes 900-999/1000", body: content[900:]},
		{rangeHeader: "bytes=-100", contentRange: "bytes 900-999/1000", body: content[900:]},
		{rangeHeader: "bytes=250-499", contentRange: "bytes 250-499/1000", body: content[250:500]},
		{rangeHeader: "bytes=990-5000", contentRange: "bytes 990-999/1000", body: content[990:]},
	}
	for _, tcase := range tcases {
		t.Run(tcase.rangeHeader, func(t *testing.T) {
			rec := streamGet(t, h, "/api/audio/jay-beats/loop.mp3", tcase.rangeHeader)
			require.Equal(t, http.StatusPartialContent, rec.Code)
			require.Equal(t, tcase.contentRange, rec.Header().Get("Content-Range"))
			require.Equal(t, strconv.Itoa(len(tcase.body)), rec.Header().Get("Content-Length"))
			require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			require.Equal(t, tcase.body, rec.Body.String())
		})
	}
}

func TestStreamInvalidRanges(t *testing.T) {
	t.Parallel()

	h, _, _ := newStreamEnv(t)

	for _, header := range []string{
		"bytes=2000-",
		"bytes=abc-def",
		"bytes=100-50",
		"bytes=0-99,200-299",
		"items=0-99",
	} {
		t.Run(header, func(t *testing.T) {
			rec := streamGet(t, h, "/api/audio/jay-beats/loop.mp3", header)
			require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
			require.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
		})
	}
}

func TestStreamContainment(t *testing.T) {
	t.Parallel()

	h, local, _ := newStreamEnv(t)

	// Plant a file just outside the media root; a traversal must never
	// reach it.
	outside := filepath.Join(filepath.Dir(local.Root()), "secret.mp3")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	for _, path := range []string{
		"/api/audio/../secret.mp3",
		"/api/audio/jay-beats/../../secret.mp3",
		"/api/audio/..",
	} {
		t.Run(path, func(t *testing.T) {
			rec := streamGet(t, h, path, "")
			require.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestStreamNotFound(t *testing.T) {
	t.Parallel()

	h, _, _ := newStreamEnv(t)

	rec := streamGet(t, h, "/api/audio/jay-beats/missing.mp3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = streamGet(t, h, "/api/audio/nobody/loop.mp3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
