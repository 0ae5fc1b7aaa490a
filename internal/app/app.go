// Package app wires configuration, storage and services into the three
// capture loops: detect, assist and hud.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aisha/internal/config"
	"aisha/internal/logger"
	"aisha/internal/repository/sqlite"
	"aisha/internal/route"
	"aisha/internal/service"
	"aisha/internal/service/storage"
	"aisha/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	snapshots  *sqlite.SnapshotRepository
	detections *sqlite.DetectionRepository
	events     *storage.EventsService
}

// New opens the event store. Every run gets its own session id.
func New(cfg *config.Config, logger *logger.Logger) (*App, error) {
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	snapshots := sqlite.NewSnapshotRepository(db)
	detections := sqlite.NewDetectionRepository(db)
	session := uuid.NewString()

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		snapshots:  snapshots,
		detections: detections,
		events:     storage.NewEventsService(session, snapshots, detections, sqlite.NewCommandRepository(db)),
	}, nil
}

// Close closes the event store.
func (a *App) Close() error {
	return a.db.Close()
}

// startViewer serves the live web view in g when VIEWER_PORT is set and
// returns its hub, or nil when the viewer is disabled.
func (a *App) startViewer(ctx context.Context, g *errgroup.Group, deps route.Dependencies) *websocket.HubService {
	if a.config.ViewerPort <= 0 {
		return nil
	}

	hub := websocket.NewHubService(a.logger)
	deps.Hub = hub
	deps.Events = a.events

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.ViewerPort),
		Handler:           route.SetupRoutes(deps, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		a.logger.Info("🚀 Viewer: http://localhost:%d", a.config.ViewerPort)
		if a.config.Password == config.DefaultPassword {
			a.logger.Warning("Viewer uses the default password, set PASSWORD")
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("viewer server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return hub
}

// broadcaster avoids handing the manager a typed nil hub.
func broadcaster(hub *websocket.HubService) service.Broadcaster {
	if hub == nil {
		return nil
	}
	return hub
}
