package handlers

import (
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/services"
	"github.com/groovematch/groovematch/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Rooms       services.RoomServicer
	Leaderboard services.LeaderboardServicer
	Catalog     services.CatalogServicer
	Settings    services.SettingsServicer
	Hub         *websocket.Hub
	Log         logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(
	rooms services.RoomServicer,
	leaderboard services.LeaderboardServicer,
	catalog services.CatalogServicer,
	settings services.SettingsServicer,
	hub *websocket.Hub,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Rooms:       rooms,
		Leaderboard: leaderboard,
		Catalog:     catalog,
		Settings:    settings,
		Hub:         hub,
		Log:         log,
	}
}
