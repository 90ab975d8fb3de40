package services

import (
	"context"

	"github.com/groovematch/groovematch/internal/errors"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// rankColors is the fixed tier -> display color map used by the public API
var rankColors = map[string]string{
	models.TierPlacement: "#95a5a6",
	models.TierBronze:    "#cd7f32",
	models.TierGold:      "#f1c40f",
	models.TierDiamond:   "#3498db",
}

// LeaderboardService serves the public read-only rating queries. It reads
// the rating store directly and is not part of the room lifecycle.
type LeaderboardService struct {
	log  logger.Logger
	repo repository.PlayerRepository
}

var _ LeaderboardServicer = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(log logger.Logger, repo repository.PlayerRepository) *LeaderboardService {
	return &LeaderboardService{log: log, repo: repo}
}

// Top returns the highest-rated players. limit <= 0 selects the default.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.Player, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	players, err := s.repo.TopPlayers(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "loading leaderboard")
	}
	return players, nil
}

// Player returns one player's rating record, creating the default unrated
// row if they have never been seen.
func (s *LeaderboardService) Player(ctx context.Context, userID string) (*models.Player, error) {
	if userID == "" {
		return nil, errors.InvalidInput("player id is required")
	}
	p, err := s.repo.GetPlayer(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "loading player")
	}
	return p, nil
}

// RankColors returns the tier display color map
func (s *LeaderboardService) RankColors() map[string]string {
	out := make(map[string]string, len(rankColors))
	for k, v := range rankColors {
		out[k] = v
	}
	return out
}
