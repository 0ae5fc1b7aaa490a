package handler

import "net/http"

// StatusHandler serves whatever snapshot provides, e.g. the latest HUD telemetry.
func StatusHandler(snapshot func() interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, snapshot())
	}
}
