package repository

import (
	"context"

	"github.com/groovematch/groovematch/internal/models"
)

// PlayerRepository is the rating store: per-player MMR and tier keyed by
// identity. GetPlayer upserts the default (0, Placement) row on first access,
// so a player exists from the moment anything asks about them.
type PlayerRepository interface {
	GetPlayer(ctx context.Context, userID string) (*models.Player, error)
	SetRating(ctx context.Context, userID string, mmr int, tier string) error
	UpdateProfile(ctx context.Context, userID, displayName, country string) error
	TopPlayers(ctx context.Context, limit int) ([]models.Player, error)
	CountPlayers(ctx context.Context) (int, error)
}

// SongRepository persists the song catalog so a restart with an unreachable
// feed can fall back to the last good snapshot.
type SongRepository interface {
	ReplaceSongs(ctx context.Context, songs []models.Song) error
	ListSongs(ctx context.Context) ([]models.Song, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces.
// Use this when a component needs access to multiple domains.
type FullRepository interface {
	PlayerRepository
	SongRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
