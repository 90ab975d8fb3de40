package handlers

// JoinRequest asks to queue a player into a category
type JoinRequest struct {
	PlayerID string `json:"player_id"`
	Category string `json:"category"`
}

// LeaveRequest removes a player from whichever room holds them
type LeaveRequest struct {
	PlayerID string `json:"player_id"`
}

// SubmitRequest carries the raw result block, one line per participant
type SubmitRequest struct {
	PlayerID string `json:"player_id"`
	Lines    string `json:"lines"`
}

// VoteRequest casts or changes a song-poll vote
type VoteRequest struct {
	PlayerID string `json:"player_id"`
	Choice   int    `json:"choice"`
}

// ConfirmRequest records an approve/reject vote on a staged result
type ConfirmRequest struct {
	PlayerID string `json:"player_id"`
	Approve  bool   `json:"approve"`
}

// ActivityRequest reports an activity signal for a player
type ActivityRequest struct {
	PlayerID string `json:"player_id"`
}
