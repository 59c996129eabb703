package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"beatdrop/auth"
	"beatdrop/config"
	"beatdrop/logger"
	"beatdrop/metadata"
	"beatdrop/model"
	"beatdrop/slug"
	"beatdrop/storage"
)

// bpmWorkers bounds concurrent tag parsing during a directory listing.
const bpmWorkers = 4

// APIHandler serves the JSON API: artist directory, song listings,
// uploads and the password gate.
type APIHandler struct {
	store  *storage.Store
	local  *storage.Local
	remote *storage.Remote // nil when MinIO is not configured
	gate   *auth.Gate
	cfg    *config.Config
}

// NewAPIHandler creates the API handler. remote may be nil.
func NewAPIHandler(store *storage.Store, local *storage.Local, remote *storage.Remote, gate *auth.Gate, cfg *config.Config) *APIHandler {
	return &APIHandler{store: store, local: local, remote: remote, gate: gate, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListArtistsHandler returns the sorted, merged slug list.
// GET /api/artists
func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	slugs := h.store.ListArtists(r.Context())
	if slugs == nil {
		slugs = []string{}
	}
	writeJSON(w, http.StatusOK, slugs)
}

// DeleteArtistHandler removes an artist's namespace from both backends.
// DELETE /api/artists/{artist}
func (h *APIHandler) DeleteArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist := slug.Normalize(mux.Vars(r)["artist"])
	if artist == "" {
		writeError(w, http.StatusBadRequest, "invalid artist")
		return
	}

	deleted, err := h.store.DeleteArtist(r.Context(), artist)
	if err != nil {
		logger.Error("deleting artist", logger.String("artist", artist), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	logger.Info("artist deleted", logger.String("artist", artist))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListRootSongsHandler returns tracks sitting directly under the media
// root. Always 200, empty array when there is nothing there.
// GET /api/songs
func (h *APIHandler) ListRootSongsHandler(w http.ResponseWriter, r *http.Request) {
	entries := h.store.ListRootTracks(r.Context())
	writeJSON(w, http.StatusOK, h.buildTracks(r.Context(), "", entries))
}

// ListSongsHandler returns one artist's merged track list.
// GET /api/songs/{artist}
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	artist := slug.Normalize(mux.Vars(r)["artist"])
	if artist == "" {
		writeError(w, http.StatusBadRequest, "invalid artist")
		return
	}

	entries, found := h.store.ListTracks(r.Context(), artist)
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, h.buildTracks(r.Context(), artist, entries))
}

// buildTracks turns storage entries into API track records: display name
// derived from the filename, a playable URL per backend, and best-effort
// BPM read from local files' tags.
func (h *APIHandler) buildTracks(ctx context.Context, artist string, entries []storage.Entry) []model.Track {
	tracks := make([]model.Track, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bpmWorkers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			track := model.Track{
				ID:   e.Filename,
				Name: model.TrackDisplayName(e.Filename),
			}
			if e.Remote {
				track.URL = h.remoteURL(ctx, artist, e)
			} else {
				track.URL = localAudioURL(artist, e.Filename)
				track.BPM = metadata.ReadBPM(e.Path)
			}
			tracks[i] = track
			return nil
		})
	}
	g.Wait()
	return tracks
}

// remoteURL prefers a direct presigned blob URL; if presigning fails the
// track falls back to the same-origin streaming path, which resolves the
// remote backend itself.
func (h *APIHandler) remoteURL(ctx context.Context, artist string, e storage.Entry) string {
	if h.remote != nil {
		u, err := h.remote.PresignedGet(ctx, e.Path)
		if err == nil {
			return u
		}
		logger.Warn("presigning download url",
			logger.String("key", e.Path), logger.ErrorField(err))
	}
	return localAudioURL(artist, e.Filename)
}

func localAudioURL(artist, filename string) string {
	if artist == "" {
		return "/api/audio/" + url.PathEscape(filename)
	}
	return "/api/audio/" + url.PathEscape(artist) + "/" + url.PathEscape(filename)
}

// SiteHandler returns the configured site display name, the default the
// UI shows before any artist is picked.
// GET /api/site
func (h *APIHandler) SiteHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"name": h.cfg.SiteName})
}

// authRequest is the POST /api/auth body.
type authRequest struct {
	Password string `json:"password"`
	Type     string `json:"type"`
}

// AuthHandler checks a submitted secret against the configured one for
// the requested role.
// POST /api/auth
func (h *APIHandler) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := auth.Role(req.Type)
	if req.Type == "" {
		role = auth.RoleAdmin
	}

	switch err := h.gate.Check(req.Password, role); err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case auth.ErrUnknownRole:
		writeError(w, http.StatusBadRequest, "unknown role")
	case auth.ErrNotConfigured:
		writeError(w, http.StatusInternalServerError, "no password set for role")
	default:
		writeError(w, http.StatusUnauthorized, "wrong password")
	}
}
