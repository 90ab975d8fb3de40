package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// TestLogger returns a logger that discards output
func TestLogger(t *testing.T) logger.Logger {
	t.Helper()
	return logger.NewWithWriter(io.Discard, slog.LevelDebug)
}
