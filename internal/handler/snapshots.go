package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"opensentry/internal/logger"
	"opensentry/internal/repository"
	"opensentry/internal/snapshot"
)

// ListSnapshotsHandler returns all snapshot records, newest first.
func ListSnapshotsHandler(store *snapshot.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.List()
		if err != nil {
			logger.Error("Error listing snapshots: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, records)
	}
}

// ViewSnapshotHandler serves a single snapshot image.
func ViewSnapshotHandler(store *snapshot.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := mux.Vars(r)["filename"]

		fullPath, err := store.Resolve(filename)
		if err != nil {
			writeSnapshotError(w, filename, err)
			return
		}

		http.ServeFile(w, r, fullPath)
	}
}

// DeleteSnapshotHandler removes one snapshot. The filename is validated
// and resolved synchronously; the file removal itself is asynchronous.
// Alert rows referencing the snapshot are cleaned up as well.
func DeleteSnapshotHandler(store *snapshot.Store, alerts repository.AlertRepository,
	logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := mux.Vars(r)["filename"]

		if err := store.Delete(filename); err != nil {
			writeSnapshotError(w, filename, err)
			return
		}

		if alerts != nil {
			go func() {
				if err := alerts.DeleteBySnapshot(filename); err != nil {
					logger.Error("Failed to delete alert records for %s: %v", filename, err)
				}
			}()
		}

		writeJSON(w, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearSnapshotsHandler deletes every snapshot asynchronously and
// reports how many were scheduled.
func ClearSnapshotsHandler(store *snapshot.Store, alerts repository.AlertRepository,
	logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := store.DeleteAll()
		if err != nil {
			logger.Error("Error clearing snapshots: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if alerts != nil {
			go func() {
				if err := alerts.DeleteAll(); err != nil {
					logger.Error("Failed to clear alert records: %v", err)
				}
			}()
		}

		writeJSON(w, map[string]interface{}{"status": "cleared", "count": count})
	}
}

// writeSnapshotError maps store errors to client responses.
func writeSnapshotError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, snapshot.ErrInvalidFilename):
		http.Error(w, "Invalid filename", http.StatusBadRequest)
	case errors.Is(err, snapshot.ErrNotFound):
		http.Error(w, "Snapshot not found: "+filename, http.StatusNotFound)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
