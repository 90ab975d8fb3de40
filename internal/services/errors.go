package services

import "github.com/groovematch/groovematch/internal/errors"

// Service-level errors surfaced to the command layer
var (
	ErrAlreadyInRoom   = errors.Conflict("player is already in a room in this category")
	ErrNotInRoom       = errors.NotFound("player is not in any room")
	ErrRoomNotFound    = errors.NotFound("room not found")
	ErrRoomNotActive   = errors.Validation("room is not awaiting a result submission")
	ErrRoomFinished    = errors.Conflict("results have already been recorded for this room")
	ErrNoActivePoll    = errors.NotFound("no active song poll for this room")
	ErrPollInProgress  = errors.Conflict("a song poll is already in progress")
	ErrNotParticipant  = errors.Validation("player is not a participant of this room")
	ErrNoPendingResult = errors.NotFound("no result is awaiting confirmation for this room")
	ErrRoomNotVoting   = errors.Validation("room is not in the voting phase")
)

// ErrInvalidChoice builds a validation error for an out-of-range poll choice
func ErrInvalidChoice(choice, candidates int) error {
	return errors.Validationf("choice %d is out of range (have %d candidates)", choice, candidates)
}
