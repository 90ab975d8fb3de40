package handlers

import "github.com/groovematch/groovematch/internal/models"

// StatusResponse is the generic success envelope
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// LeaderboardResponse lists the top players
type LeaderboardResponse struct {
	Players []models.Player `json:"players"`
}

// RoomListResponse lists a category's open rooms
type RoomListResponse struct {
	Category string            `json:"category"`
	Rooms    []models.RoomView `json:"rooms"`
}

// CatalogStatusResponse reports the current catalog snapshot size
type CatalogStatusResponse struct {
	Songs int `json:"songs"`
}
