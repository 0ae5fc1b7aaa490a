package handler

import (
	"net/http"
	"time"

	"aisha/internal/logger"
	"aisha/internal/service/storage"
)

// EventsHandler lists stored snapshots and voice commands.
func EventsHandler(events *storage.EventsService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filter, ok := ParseEventFilter(r, time.Now())
		if !ok {
			http.Error(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}

		data, err := events.Events(filter)
		if err != nil {
			logger.Error("Failed to list events: %v", err)
			http.Error(w, "Failed to list events", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, data)
	}
}
