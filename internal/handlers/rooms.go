package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// roomParams extracts the category and room id path parameters
func roomParams(r *http.Request) (string, int, *APIError) {
	category := chi.URLParam(r, "category")
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil || category == "" {
		return "", 0, BadRequest("invalid room reference")
	}
	return category, id, nil
}

// handleJoin queues a player into a category
func (h *Handlers) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}

	view, err := h.Rooms.Join(r.Context(), req.PlayerID, req.Category)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	h.Rooms.Activity(req.PlayerID)
	respondOK(w, view)
}

// handleLeave removes a player from their room
func (h *Handlers) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}

	view, err := h.Rooms.Leave(r.Context(), req.PlayerID)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, view)
}

// handleListRooms returns the open rooms for a category (or every category
// when none is given)
func (h *Handlers) handleListRooms(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		respondOK(w, RoomListResponse{Category: category, Rooms: h.Rooms.ListRooms(category)})
		return
	}

	var lists []RoomListResponse
	for _, cat := range h.Rooms.Categories() {
		lists = append(lists, RoomListResponse{Category: cat, Rooms: h.Rooms.ListRooms(cat)})
	}
	respondOK(w, lists)
}

// handleGetRoom returns one room
func (h *Handlers) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	category, id, apiErr := roomParams(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	view, err := h.Rooms.Room(category, id)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, view)
}

// handleSubmit stages a result block for confirmation
func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	category, id, apiErr := roomParams(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	var req SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}

	pending, err := h.Rooms.Submit(r.Context(), category, id, req.Lines)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	if req.PlayerID != "" {
		h.Rooms.Activity(req.PlayerID)
	}
	respondOK(w, pending)
}

// handlePollVote casts or changes a song-poll vote
func (h *Handlers) handlePollVote(w http.ResponseWriter, r *http.Request) {
	category, id, apiErr := roomParams(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	var req VoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}

	view, err := h.Rooms.CastVote(r.Context(), category, id, req.PlayerID, req.Choice)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, view)
}

// handlePollRetry relaunches a poll that closed with no votes
func (h *Handlers) handlePollRetry(w http.ResponseWriter, r *http.Request) {
	category, id, apiErr := roomParams(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	if err := h.Rooms.RetryPoll(r.Context(), category, id); err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, StatusResponse{Status: "success", Message: "Poll restarted"})
}

// handleConfirm records an approve/reject vote on a staged result
func (h *Handlers) handleConfirm(w http.ResponseWriter, r *http.Request) {
	category, id, apiErr := roomParams(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	var req ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}

	if err := h.Rooms.ConfirmResult(r.Context(), category, id, req.PlayerID, req.Approve); err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	h.Rooms.Activity(req.PlayerID)
	respondOK(w, StatusResponse{Status: "success", Message: "Vote recorded"})
}

// handleActivity records an activity signal
func (h *Handlers) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err.(*APIError))
		return
	}
	if req.PlayerID == "" {
		respondError(w, BadRequest("player_id is required"))
		return
	}

	h.Rooms.Activity(req.PlayerID)
	respondOK(w, StatusResponse{Status: "success"})
}

// handleJoinLink resolves a short room link to its room view
func (h *Handlers) handleJoinLink(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	view, err := h.Rooms.RoomByExternalID(externalID)
	if err != nil {
		respondError(w, h.serviceError(err))
		return
	}
	respondOK(w, view)
}
