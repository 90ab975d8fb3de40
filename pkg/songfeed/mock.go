package songfeed

import (
	"context"
	"sync"
)

// MockClient is a configurable in-memory feed client for testing
type MockClient struct {
	mu           sync.Mutex
	Tracks       []Track
	Difficulties []Difficulty
	Err          error

	FetchTrackCalls int
	FetchDiffCalls  int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a MockClient with an empty feed
func NewMockClient() *MockClient {
	return &MockClient{}
}

// SetFeed replaces the mock's feed contents
func (m *MockClient) SetFeed(tracks []Track, diffs []Difficulty) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tracks = tracks
	m.Difficulties = diffs
}

// SetError makes all fetches fail with err
func (m *MockClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MockClient) FetchTracks(_ context.Context) ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchTrackCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]Track(nil), m.Tracks...), nil
}

func (m *MockClient) FetchDifficulties(_ context.Context) ([]Difficulty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchDiffCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]Difficulty(nil), m.Difficulties...), nil
}

func (m *MockClient) BaseURL() string {
	return "mock://songfeed"
}
