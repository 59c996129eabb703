package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beatdrop/auth"
	"beatdrop/config"
	"beatdrop/logger"
	"beatdrop/metrics"
	"beatdrop/storage"
)

// Start initializes storage and runs the HTTP server until SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	metrics.Register()

	local, err := storage.NewLocal(cfg.MediaRoot)
	if err != nil {
		logger.Fatal("initializing media root", logger.ErrorField(err))
	}

	// The remote backend is optional: a local-only deployment simply has
	// no MinIO credentials, and every remote code path stays disabled.
	var remote *storage.Remote
	if cfg.RemoteConfigured() {
		remote, err = storage.NewRemote(cfg)
		if err != nil {
			logger.Warn("remote storage unavailable, continuing local-only", logger.ErrorField(err))
			remote = nil
		}
	} else {
		logger.Info("no MinIO credentials configured, running local-only")
	}

	store := storage.NewStore(local, remote)
	gate := auth.NewGate(cfg.AdminPassword, cfg.ViewerPassword)
	api := NewAPIHandler(store, local, remote, gate, cfg)
	stream := NewStreamHandler(local, remote)

	router := NewRouter(api, stream)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: audio streams legitimately outlive any fixed
		// window and end when the listener disconnects.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			logger.String("addr", server.Addr),
			logger.String("site", cfg.SiteName),
			logger.String("mediaRoot", local.Root()),
			logger.Bool("remote", remote != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

// NewRouter wires every route. Split out from Start so tests can mount
// the full routing table against httptest servers.
func NewRouter(api *APIHandler, stream *StreamHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(observeMiddleware)

	router.HandleFunc("/api/site", api.SiteHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/auth", api.AuthHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/artists", api.ListArtistsHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/artists/{artist}", api.DeleteArtistHandler).Methods(http.MethodDelete, http.MethodOptions)
	router.HandleFunc("/api/songs", api.ListRootSongsHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/songs/{artist}", api.ListSongsHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/upload", api.UploadHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/upload/authorize", api.AuthorizeUploadHandler).Methods(http.MethodPost, http.MethodOptions)
	router.PathPrefix("/api/audio/").Handler(stream).Methods(http.MethodGet, http.MethodOptions)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}
