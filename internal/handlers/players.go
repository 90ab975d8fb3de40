package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleLeaderboard returns the top players by MMR
func (h *Handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, BadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	players, err := h.Leaderboard.Top(r.Context(), limit)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, LeaderboardResponse{Players: players})
}

// handleGetPlayer returns one player's rating record
func (h *Handlers) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")

	player, err := h.Leaderboard.Player(r.Context(), playerID)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, player)
}

// handleRankColors returns the fixed tier display color map
func (h *Handlers) handleRankColors(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Leaderboard.RankColors())
}

// handleCatalogStatus reports the current catalog snapshot size
func (h *Handlers) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, CatalogStatusResponse{Songs: h.Catalog.Size()})
}

// handleCatalogRefresh triggers an out-of-schedule catalog refresh
func (h *Handlers) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Refresh(r.Context()); err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, CatalogStatusResponse{Songs: h.Catalog.Size()})
}
