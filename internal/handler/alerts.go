package handler

import (
	"net/http"
	"strconv"

	"opensentry/internal/logger"
	"opensentry/internal/model"
	"opensentry/internal/repository"
)

// GetAlertsHandler returns recent alert records from the database.
func GetAlertsHandler(alerts repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 50)

		records, err := alerts.GetRecent(limit)
		if err != nil {
			logger.Error("Error querying alerts: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.Alert{}
		}

		writeJSON(w, records)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
