package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/groovematch/groovematch/internal/handlers"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/repository"
	"github.com/groovematch/groovematch/internal/scheduler"
	"github.com/groovematch/groovematch/internal/services"
	"github.com/groovematch/groovematch/internal/websocket"
	"github.com/groovematch/groovematch/pkg/songfeed"
)

// Config collects the tunables wired in from the command line
type Config struct {
	DBPath         string
	BaseURL        string
	CandidateCount int
	RoomCapacity   int
}

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	sched    *scheduler.Scheduler
	cancel   context.CancelFunc
}

// New creates and initializes a new application instance
func New(log logger.Logger, feedClient songfeed.Client, cfg Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(log)

	// Hub first: the room service needs it as its notifier, the hub gets
	// the room service back as its initial-state source.
	hub := websocket.New(log)
	hub.Start()

	settingsService := services.NewSettingsService(log, repo)
	catalogService := services.NewCatalogService(log, feedClient, repo, settingsService, cfg.CandidateCount)
	pollEngine := services.NewPollEngine(log, sched, 0, nil)

	roomCfg := services.DefaultRoomConfig()
	if cfg.RoomCapacity != 0 {
		roomCfg.Capacity = cfg.RoomCapacity
	}
	roomService := services.NewRoomService(log, repo, catalogService, hub, sched, pollEngine, roomCfg)
	monitor := services.NewInactivityMonitor(log, roomService, hub)
	roomService.SetMonitor(monitor)
	hub.SetRoomLister(roomService)

	leaderboardService := services.NewLeaderboardService(log, repo)

	ctx, cancel := context.WithCancel(context.Background())
	catalogService.Start(ctx)
	monitor.Start(ctx)
	roomService.Start(ctx)

	h := handlers.New(roomService, leaderboardService, catalogService, settingsService, hub, log)

	a := &App{
		log:      log,
		handlers: h,
		repo:     repo,
		sched:    sched,
		cancel:   cancel,
	}

	if cfg.BaseURL != "" {
		a.setDefaultBaseURL(cfg.BaseURL)
	}
	return a, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.sched.CancelAll()
	if err := a.repo.Close(); err != nil {
		a.log.Warn("Failed to close repository", "error", err)
	}
}

// Run starts the HTTP server
func (a *App) Run(addr string) error {
	a.log.Info("Server starting", "addr", addr)
	return http.ListenAndServe(addr, a.Router())
}

// setDefaultBaseURL records the public base URL used for join links and QR
// codes, unless a non-localhost value is already configured.
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.repo.GetSetting(ctx, "base_url")

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, "base_url", baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}
