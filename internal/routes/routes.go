package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"opensentry/internal/config"
	"opensentry/internal/handler"
	"opensentry/internal/logger"
	"opensentry/internal/middleware"
	"opensentry/internal/repository"
	"opensentry/internal/snapshot"
	"opensentry/internal/stream"
	"opensentry/internal/ws"
)

// SetupRoutes registers the API endpoints and wraps the router with the
// CORS middleware.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, streamer *stream.Streamer,
	store *snapshot.Store, alerts repository.AlertRepository, hub *ws.Hub) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", handler.RootHandler()).Methods(http.MethodGet)
	router.HandleFunc("/status", handler.StatusHandler(cfg, store, hub, alerts, logger)).Methods(http.MethodGet)

	// Live video
	router.HandleFunc("/stream", handler.StreamHandler(streamer, logger)).Methods(http.MethodGet)

	// Snapshot gallery
	router.HandleFunc("/snapshots", handler.ListSnapshotsHandler(store, logger)).Methods(http.MethodGet)
	router.HandleFunc("/snapshots", handler.ClearSnapshotsHandler(store, alerts, logger)).Methods(http.MethodDelete)
	router.HandleFunc("/snapshots/{filename}", handler.ViewSnapshotHandler(store, logger)).Methods(http.MethodGet)
	router.HandleFunc("/snapshots/{filename}", handler.DeleteSnapshotHandler(store, alerts, logger)).Methods(http.MethodDelete)

	// Alert history and live feed
	router.HandleFunc("/alerts", handler.GetAlertsHandler(alerts, logger)).Methods(http.MethodGet)
	router.HandleFunc("/ws", handler.AlertFeedHandler(hub, logger)).Methods(http.MethodGet)

	// Log endpoints
	router.HandleFunc("/logs/info", handler.ShowInfoLogsHandler(cfg)).Methods(http.MethodGet)
	router.HandleFunc("/logs/warning", handler.ShowWarningLogsHandler(cfg)).Methods(http.MethodGet)
	router.HandleFunc("/logs/error", handler.ShowErrorLogsHandler(cfg)).Methods(http.MethodGet)

	router.HandleFunc("/logs/info/clear", handler.ClearInfoLogsHandler(logger)).Methods(http.MethodPost)
	router.HandleFunc("/logs/warning/clear", handler.ClearWarningLogsHandler(logger)).Methods(http.MethodPost)
	router.HandleFunc("/logs/error/clear", handler.ClearErrorLogsHandler(logger)).Methods(http.MethodPost)

	return middleware.CORSMiddleware(router)
}
