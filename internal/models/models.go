package models

import (
	"fmt"
	"time"
)

// Skill tiers, ordered from lowest to highest. Placement is the pre-rating
// state a player holds until their first completed match.
const (
	TierPlacement = "Placement"
	TierBronze    = "Bronze"
	TierGold      = "Gold"
	TierDiamond   = "Diamond"
)

// TierForRating maps an MMR value onto the tier ladder.
func TierForRating(mmr int) string {
	switch {
	case mmr < 1000:
		return TierBronze
	case mmr < 2000:
		return TierGold
	default:
		return TierDiamond
	}
}

// Player represents a registered community member
type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	MMR         int    `json:"mmr"`
	Tier        string `json:"tier"`
	Country     string `json:"country,omitempty"`
}

// RoomState is a room's position in its lifecycle
type RoomState int

const (
	RoomForming RoomState = iota
	RoomVoting
	RoomActive
	RoomSubmitted
	RoomFinished
	RoomClosed
)

// String returns the lowercase wire name of the state
func (s RoomState) String() string {
	switch s {
	case RoomForming:
		return "forming"
	case RoomVoting:
		return "voting"
	case RoomActive:
		return "active"
	case RoomSubmitted:
		return "submitted"
	case RoomFinished:
		return "finished"
	case RoomClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states render as names in JSON
func (s RoomState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText maps a wire name back onto the state
func (s *RoomState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forming":
		*s = RoomForming
	case "voting":
		*s = RoomVoting
	case "active":
		*s = RoomActive
	case "submitted":
		*s = RoomSubmitted
	case "finished":
		*s = RoomFinished
	case "closed":
		*s = RoomClosed
	default:
		return fmt.Errorf("unknown room state %q", text)
	}
	return nil
}

// RoomMember is a participant entry as rendered to clients
type RoomMember struct {
	UserID string `json:"user_id"`
	MMR    int    `json:"mmr"`
	Tier   string `json:"tier"`
}

// RoomView is the read-only projection of a room sent to the presentation layer
type RoomView struct {
	ID         int          `json:"id"`
	ExternalID string       `json:"external_id"`
	Category   string       `json:"category"`
	Name       string       `json:"name"`
	State      RoomState    `json:"state"`
	AverageMMR int          `json:"average_mmr"`
	Members    []RoomMember `json:"members"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Song is one playable chart: a track title at a specific difficulty and level
type Song struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Level      int    `json:"level"`
}

// PollView is the state of a song vote as rendered to clients
type PollView struct {
	SessionID  string    `json:"session_id"`
	Candidates []Song    `json:"candidates"`
	Tally      []int     `json:"tally"`
	Deadline   time.Time `json:"deadline"`
}

// RatingTransaction records one participant's rating adjustment from a
// completed match. It is ephemeral: produced by the rating engine, applied
// to the store, and reported to clients, but never persisted as a row.
type RatingTransaction struct {
	PlayerID       string `json:"player_id"`
	Country        string `json:"country,omitempty"`
	Rank           int    `json:"rank"`
	Score          int    `json:"score"`
	Previous       int    `json:"previous"`
	Delta          int    `json:"delta"`
	Result         int    `json:"result"`
	Tier           string `json:"tier"`
	PlacementBonus bool   `json:"placement_bonus,omitempty"`
}

// WSMessage is the envelope for all WebSocket notifications
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
