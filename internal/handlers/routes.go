package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// WebSocket event stream for the presentation layer
	r.Get("/ws", h.Hub.ServeWs)

	// Room join links and their QR codes
	r.Get("/join/{externalID}", h.handleJoinLink)
	r.Get("/join/{externalID}/qr", h.handleRoomQR)

	// Matchmaking commands
	r.Post("/api/rooms/join", h.handleJoin)
	r.Post("/api/rooms/leave", h.handleLeave)
	r.Get("/api/rooms", h.handleListRooms)
	r.Get("/api/rooms/{category}/{id}", h.handleGetRoom)
	r.Post("/api/rooms/{category}/{id}/submit", h.handleSubmit)
	r.Post("/api/rooms/{category}/{id}/poll/votes", h.handlePollVote)
	r.Post("/api/rooms/{category}/{id}/poll/retry", h.handlePollRetry)
	r.Post("/api/rooms/{category}/{id}/confirm", h.handleConfirm)
	r.Post("/api/activity", h.handleActivity)

	// Public read API
	r.Get("/api/leaderboard", h.handleLeaderboard)
	r.Get("/api/players/{id}", h.handleGetPlayer)
	r.Get("/api/rank-colors", h.handleRankColors)

	// Catalog operations
	r.Get("/api/catalog", h.handleCatalogStatus)
	r.Post("/api/catalog/refresh", h.handleCatalogRefresh)

	return r
}
