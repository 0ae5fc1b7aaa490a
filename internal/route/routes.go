package route

import (
	"net/http"
	"os"
	"path/filepath"

	"aisha/internal/config"
	"aisha/internal/handler"
	"aisha/internal/logger"
	"aisha/internal/middleware"
	"aisha/internal/service/notify"
	"aisha/internal/service/relay"
	"aisha/internal/service/storage"
	"aisha/internal/service/websocket"
)

// Dependencies are the services exposed over HTTP. Relay and Status may be
// nil when the running command has no relay or telemetry.
type Dependencies struct {
	Hub      *websocket.HubService
	Events   *storage.EventsService
	Relay    relay.Relay
	Notifier *notify.Notifier
	Status   func() interface{}
}

var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	sessions := middleware.NewSessions(middleware.SessionTTL)

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(deps.Hub, logger))
	if deps.Events != nil {
		mux.HandleFunc("/api/events", handler.EventsHandler(deps.Events, logger))
	}
	if deps.Relay != nil {
		mux.HandleFunc("/api/relay", handler.RelayHandler(deps.Relay, deps.Events, deps.Notifier, logger))
	}
	if deps.Status != nil {
		mux.HandleFunc("/api/status", handler.StatusHandler(deps.Status))
	}

	// Log endpoints
	for name, file := range logFiles {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, sessions, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler(sessions))

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.AuthMiddleware(sessions, mux)
}
