package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"opensentry/internal/config"
	"opensentry/internal/logger"
	"opensentry/internal/repository"
	"opensentry/internal/snapshot"
	"opensentry/internal/ws"
)

// RootHandler returns a small API description document.
func RootHandler() http.HandlerFunc {
	endpoints := []map[string]string{
		{"path": "/stream", "description": "Stream the camera feed with object detection"},
		{"path": "/status", "description": "Get API status"},
		{"path": "/snapshots", "description": "List or clear evidence snapshots"},
		{"path": "/alerts", "description": "List recent alerts"},
		{"path": "/ws", "description": "Live alert feed over websocket"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"name":        "OpenSentry API",
			"version":     "1.0.0",
			"description": "Security Camera API with object detection",
			"endpoints":   endpoints,
		})
	}
}

// StatusHandler reports the current detection and notification
// configuration plus runtime counters.
func StatusHandler(cfg *config.Config, store *snapshot.Store, hub *ws.Hub,
	alerts repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertCount := 0
		if alerts != nil {
			count, err := alerts.GetTotalCount()
			if err != nil {
				logger.Error("Error counting alerts: %v", err)
			} else {
				alertCount = count
			}
		}

		notifications := map[string]interface{}{
			"email_enabled": cfg.EmailNotifications,
			"timeout":       cfg.NotificationTimeout,
		}
		if cfg.EmailNotifications {
			notifications["recipient"] = cfg.RecipientEmail
		}

		writeJSON(w, map[string]interface{}{
			"status":         "online",
			"timestamp":      time.Now().Unix(),
			"detecting":      cfg.DetectionLabels,
			"notifications":  notifications,
			"snapshot_count": store.Count(),
			"alert_count":    alertCount,
			"feed_clients":   hub.ClientCount(),
		})
	}
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
