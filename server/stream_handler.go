package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"beatdrop/logger"
	"beatdrop/metrics"
	"beatdrop/slug"
	"beatdrop/storage"
)

const audioContentType = "audio/mpeg"

// streamChunkSize bounds how much of a track sits in memory per connected
// listener while piping to the response.
const streamChunkSize = 64 << 10

// StreamHandler delivers track bytes with HTTP partial-content semantics.
// Requests name a path under the media root; the handler re-validates
// containment itself since the segments are untrusted, serves the local
// file when one exists, and otherwise falls back to the canonical object
// in the remote bucket.
type StreamHandler struct {
	local  *storage.Local
	remote *storage.Remote // nil when MinIO is not configured
}

// NewStreamHandler creates the streaming handler.
func NewStreamHandler(local *storage.Local, remote *storage.Remote) *StreamHandler {
	return &StreamHandler{local: local, remote: remote}
}

// byteRange is one parsed "bytes=" range, inclusive on both ends.
type byteRange struct {
	start, end int64
}

func (br byteRange) length() int64 {
	return br.end - br.start + 1
}

// parseRange parses a single-range Range header against a known size.
// Supported forms: bytes=s-e, bytes=s- (to end of file), bytes=-n (last n
// bytes). Multi-range requests are not supported.
func parseRange(header string, size int64) (byteRange, error) {
	if size == 0 {
		return byteRange{}, errors.New("empty file")
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return byteRange{}, fmt.Errorf("missing bytes= prefix in %q", header)
	}
	if strings.Contains(spec, ",") {
		return byteRange{}, errors.New("multi-range not supported")
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return byteRange{}, fmt.Errorf("invalid range spec %q", spec)
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix form: last n bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, fmt.Errorf("invalid suffix length %q", endStr)
		}
		if n > size {
			n = size
		}
		return byteRange{start: size - n, end: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, fmt.Errorf("invalid range start %q", startStr)
	}
	if start >= size {
		return byteRange{}, fmt.Errorf("range start %d beyond size %d", start, size)
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return byteRange{}, fmt.Errorf("invalid range end %q", endStr)
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return byteRange{start: start, end: end}, nil
}

// source is a resolved track location: where the bytes live and how big
// the whole file is.
type source struct {
	size    int64
	backend string // "local" or "remote"

	localPath string
	artist    string
	filename  string
}

func (h *StreamHandler) open(r *http.Request, src source, start, length int64) (io.ReadCloser, error) {
	if src.backend == "local" {
		rc, _, err := h.local.OpenPath(src.localPath, start, length)
		return rc, err
	}
	rc, _, err := h.remote.Open(r.Context(), src.artist, src.filename, start, length)
	return rc, err
}

// resolve validates containment and locates the requested track. The
// containment check is purely lexical and happens before any filesystem
// or network access.
func (h *StreamHandler) resolve(r *http.Request) (source, int, error) {
	rel := strings.TrimPrefix(r.URL.Path, "/api/audio/")
	segments := strings.Split(strings.Trim(rel, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return source{}, http.StatusNotFound, errors.New("no path")
	}

	path, err := h.local.SecurePath(segments...)
	if err != nil {
		return source{}, http.StatusForbidden, err
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return source{size: info.Size(), backend: "local", localPath: path}, 0, nil
	}

	// Local miss: try the canonical remote object for artist/file paths.
	if h.remote != nil && len(segments) == 2 {
		artist := slug.Normalize(segments[0])
		filename := segments[1]
		if artist != "" {
			size, err := h.remote.StatTrack(r.Context(), artist, filename)
			if err == nil {
				return source{size: size, backend: "remote", artist: artist, filename: filename}, 0, nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				logger.Warn("remote stat failed",
					logger.String("artist", artist),
					logger.String("filename", filename),
					logger.ErrorField(err))
			}
		}
	}

	return source{}, http.StatusNotFound, errors.New("not found")
}

// ServeHTTP implements the range-request contract: 200 with the full body
// when no Range header is present, 206 with Content-Range otherwise, 403
// on containment violations and 404 for absent files.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	src, status, err := h.resolve(r)
	if err != nil {
		if status == http.StatusForbidden {
			http.Error(w, "Forbidden", http.StatusForbidden)
		} else {
			http.Error(w, "Not found", http.StatusNotFound)
		}
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", audioContentType)

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		rc, err := h.open(r, src, 0, -1)
		if err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Length", strconv.FormatInt(src.size, 10))
		w.WriteHeader(http.StatusOK)
		h.pipe(w, rc, src.backend)
		return
	}

	br, err := parseRange(rangeHeader, src.size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", src.size))
		http.Error(w, "Invalid range", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	rc, err := h.open(r, src, br.start, br.length())
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.start, br.end, src.size))
	w.Header().Set("Content-Length", strconv.FormatInt(br.length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	h.pipe(w, rc, src.backend)
}

// pipe copies track bytes to the response one chunk at a time. A write
// failure means the client went away; further reads stop immediately.
func (h *StreamHandler) pipe(w http.ResponseWriter, rc io.Reader, backend string) {
	buf := make([]byte, streamChunkSize)
	written, err := io.CopyBuffer(w, rc, buf)
	metrics.StreamedBytes.WithLabelValues(backend).Add(float64(written))
	if err != nil {
		logger.Debug("stream aborted",
			logger.Int64("written", written),
			logger.ErrorField(err))
	}
}
