package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"beatdrop/logger"
	"beatdrop/metrics"
	"beatdrop/slug"
	"beatdrop/storage"
)

// maxUploadMemory caps the in-memory portion of multipart parsing; larger
// files spill to temp storage.
const maxUploadMemory = 32 << 20

// unsafeFilenameChars is everything outside the storage filename
// allow-list: letters, digits, dot, underscore, hyphen, space.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\- ]`)

// remotePathname matches the only object shape a remote uploader may
// write: songs/<slug>/<filename>.mp3.
var remotePathname = regexp.MustCompile(`^` + storage.RemotePrefix + `/([a-z0-9-]+)/([a-zA-Z0-9._\- ]+)$`)

// sanitizeFilename strips path components and disallowed characters from
// a client-supplied filename.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(filepath.Base(name), "")
}

// validRemotePathname reports whether p names an object a remote uploader
// may write: songs/<slug>/<filename> with the audio extension.
func validRemotePathname(p string) bool {
	m := remotePathname.FindStringSubmatch(p)
	return m != nil && strings.HasSuffix(strings.ToLower(m[2]), storage.AudioExt)
}

// UploadHandler accepts a display name plus one or more MP3s and persists
// them into the local tree under the name's slug. Files without the audio
// extension are skipped silently; which files survive is visible only in
// the resulting listing.
// POST /api/upload (multipart: name, files)
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	artist := slug.Normalize(name)
	if artist == "" {
		writeError(w, http.StatusBadRequest, "invalid name")
		return
	}

	// The namespace exists from this point on, even if every file below
	// gets skipped for the wrong extension.
	if err := h.local.EnsureArtist(artist); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	saved := 0
	for _, header := range files {
		if !strings.HasSuffix(strings.ToLower(header.Filename), storage.AudioExt) {
			continue
		}
		filename := sanitizeFilename(header.Filename)

		file, err := header.Open()
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "reading uploaded file")
			return
		}
		err = h.local.WriteTrack(r.Context(), artist, filename, file)
		file.Close()
		if err != nil {
			logger.Error("persisting upload",
				logger.String("artist", artist),
				logger.String("filename", filename),
				logger.ErrorField(err))
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		saved++
	}

	logger.Info("upload complete",
		logger.String("artist", artist),
		logger.Int("saved", saved),
		logger.Int("received", len(files)))
	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"slug": artist})
}

// authorizeRequest is the POST /api/upload/authorize body.
type authorizeRequest struct {
	Pathname string `json:"pathname"`
}

// authorizeResponse carries the scoped write credential for a remote-mode
// upload: the client PUTs the file bytes straight to the blob store.
type authorizeResponse struct {
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

// AuthorizeUploadHandler validates the destination shape of a remote
// upload and answers with a time-limited presigned PUT URL scoped to that
// single object.
// POST /api/upload/authorize
func (h *APIHandler) AuthorizeUploadHandler(w http.ResponseWriter, r *http.Request) {
	if h.remote == nil {
		writeError(w, http.StatusInternalServerError, "remote storage not configured")
		return
	}

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validRemotePathname(req.Pathname) {
		writeError(w, http.StatusBadRequest, "invalid pathname")
		return
	}

	uploadURL, expires, err := h.remote.PresignedPut(r.Context(), req.Pathname)
	if err != nil {
		logger.Error("presigning upload url",
			logger.String("pathname", req.Pathname),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("upload authorized",
		logger.String("pathname", req.Pathname),
		logger.String("expires", expires.Format(time.RFC3339)))
	writeJSON(w, http.StatusOK, authorizeResponse{URL: uploadURL, Expires: expires})
}
