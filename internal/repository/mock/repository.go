// Package mock provides an in-memory FullRepository implementation for tests
// that don't need a real database.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
)

// Repository is an in-memory implementation of repository.FullRepository
type Repository struct {
	mu       sync.Mutex
	players  map[string]models.Player
	songs    []models.Song
	settings map[string]string

	// SetRatingErr, when set, is returned by SetRating for the given user id.
	// Lets tests exercise per-participant persistence failures.
	SetRatingErr map[string]error
}

var _ repository.FullRepository = (*Repository)(nil)

// New creates an empty in-memory repository
func New() *Repository {
	return &Repository{
		players:  make(map[string]models.Player),
		settings: make(map[string]string),
	}
}

func (r *Repository) GetPlayer(_ context.Context, userID string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[userID]
	if !ok {
		p = models.Player{UserID: userID, MMR: 0, Tier: models.TierPlacement}
		r.players[userID] = p
	}
	out := p
	return &out, nil
}

func (r *Repository) SetRating(_ context.Context, userID string, mmr int, tier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.SetRatingErr[userID]; ok {
		return err
	}
	p, ok := r.players[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.MMR = mmr
	p.Tier = tier
	r.players[userID] = p
	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID, displayName, country string) error {
	if _, err := r.GetPlayer(ctx, userID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.players[userID]
	p.DisplayName = displayName
	p.Country = country
	r.players[userID] = p
	return nil
}

func (r *Repository) TopPlayers(_ context.Context, limit int) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].MMR != players[j].MMR {
			return players[i].MMR > players[j].MMR
		}
		return players[i].UserID < players[j].UserID
	})
	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

func (r *Repository) CountPlayers(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players), nil
}

func (r *Repository) ReplaceSongs(_ context.Context, songs []models.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.songs = append([]models.Song(nil), songs...)
	return nil
}

func (r *Repository) ListSongs(_ context.Context) ([]models.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Song(nil), r.songs...), nil
}

func (r *Repository) GetSetting(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[key], nil
}

func (r *Repository) SetSetting(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}
