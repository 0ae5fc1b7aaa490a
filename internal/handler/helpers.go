package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"aisha/internal/dto"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// atoiDefault parses a positive integer, returning def otherwise.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseSince accepts an RFC 3339 timestamp or a look-back duration such as "2h".
func parseSince(s string, now time.Time) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(-d), true
	}
	return time.Time{}, false
}

// ParseEventFilter builds an event filter from query parameters.
func ParseEventFilter(r *http.Request, now time.Time) (dto.EventFilter, bool) {
	q := r.URL.Query()
	since, ok := parseSince(q.Get("since"), now)
	if !ok {
		return dto.EventFilter{}, false
	}

	return dto.EventFilter{
		Session: q.Get("session"),
		Camera:  q.Get("camera"),
		Label:   q.Get("label"),
		Source:  q.Get("source"),
		Action:  q.Get("action"),
		Since:   since,
		Limit:   atoiDefault(q.Get("limit"), 0),
	}, true
}
