package services

import (
	"context"

	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/repository"
)

// SettingsService handles settings business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

var _ SettingsServicer = (*SettingsService)(nil)

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetSetting retrieves a setting value by key
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting stores a setting value by key
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// BaseURL returns the configured public base URL, used for join links and
// QR codes. Empty when never configured.
func (s *SettingsService) BaseURL(ctx context.Context) string {
	url, err := s.repo.GetSetting(ctx, "base_url")
	if err != nil {
		s.log.Warn("Failed to read base_url setting", "error", err)
		return ""
	}
	return url
}
