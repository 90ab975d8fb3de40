package services

import (
	"context"
	"time"

	"github.com/groovematch/groovematch/internal/models"
)

// CatalogServicer exposes the song catalog to the room service and handlers
type CatalogServicer interface {
	// Refresh rebuilds the catalog from the external feed
	Refresh(ctx context.Context) error
	// LevelRange resolves the sampling window for a set of participant tiers
	LevelRange(tiers []string) (lo, hi int)
	// Sample draws candidate songs for the resolved window
	Sample(lo, hi int) []models.Song
	// Size returns the number of entries in the current snapshot
	Size() int
}

// RoomServicer is the command surface consumed by the HTTP layer
type RoomServicer interface {
	Join(ctx context.Context, playerID, category string) (*models.RoomView, error)
	Leave(ctx context.Context, playerID string) (*models.RoomView, error)
	Submit(ctx context.Context, category string, roomID int, block string) (*PendingResult, error)
	ConfirmResult(ctx context.Context, category string, roomID int, playerID string, approve bool) error
	CastVote(ctx context.Context, category string, roomID int, playerID string, choice int) (*models.PollView, error)
	RetryPoll(ctx context.Context, category string, roomID int) error
	Activity(playerID string)
	ListRooms(category string) []models.RoomView
	Categories() []string
	Room(category string, roomID int) (*models.RoomView, error)
	RoomByExternalID(externalID string) (*models.RoomView, error)
}

// LeaderboardServicer serves the public read-only rating queries
type LeaderboardServicer interface {
	Top(ctx context.Context, limit int) ([]models.Player, error)
	Player(ctx context.Context, userID string) (*models.Player, error)
	RankColors() map[string]string
}

// SettingsServicer handles settings business logic
type SettingsServicer interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	BaseURL(ctx context.Context) string
}

// PendingResult describes a staged submission awaiting majority confirmation
type PendingResult struct {
	Room         models.RoomView            `json:"room"`
	Transactions []models.RatingTransaction `json:"transactions"`
	Deadline     time.Time                  `json:"deadline"`
	Threshold    int                        `json:"threshold"`
}

// Notifier receives room lifecycle events for the presentation layer. The
// core never talks to the chat platform directly; whatever renders rooms to
// users registers here.
type Notifier interface {
	RoomCreated(room models.RoomView)
	RoomClosed(category string, roomID int, name string)
	RoomRenamed(category string, roomID int, name string)
	PlayerJoined(room models.RoomView, playerID string, mmr int)
	PlayerLeft(room models.RoomView, playerID string)
	PollStarted(room models.RoomView, poll models.PollView)
	PollResolved(room models.RoomView, winner *models.Song)
	ResultsPending(room models.RoomView, txs []models.RatingTransaction, deadline time.Time)
	ResultsCommitted(room models.RoomView, txs []models.RatingTransaction)
	ResultsRejected(room models.RoomView, reason string)
	InactivityWarning(category string, roomID int, playerID string)
	PlayerEvicted(category string, roomID int, playerID string)
	RoomList(category string, rooms []models.RoomView)
}

// NopNotifier discards all events; used in tests and as a default
type NopNotifier struct{}

func (NopNotifier) RoomCreated(models.RoomView)                                            {}
func (NopNotifier) RoomClosed(string, int, string)                                         {}
func (NopNotifier) RoomRenamed(string, int, string)                                        {}
func (NopNotifier) PlayerJoined(models.RoomView, string, int)                              {}
func (NopNotifier) PlayerLeft(models.RoomView, string)                                     {}
func (NopNotifier) PollStarted(models.RoomView, models.PollView)                           {}
func (NopNotifier) PollResolved(models.RoomView, *models.Song)                             {}
func (NopNotifier) ResultsPending(models.RoomView, []models.RatingTransaction, time.Time)  {}
func (NopNotifier) ResultsCommitted(models.RoomView, []models.RatingTransaction)           {}
func (NopNotifier) ResultsRejected(models.RoomView, string)                                {}
func (NopNotifier) InactivityWarning(string, int, string)                                  {}
func (NopNotifier) PlayerEvicted(string, int, string)                                      {}
func (NopNotifier) RoomList(string, []models.RoomView)                                     {}
