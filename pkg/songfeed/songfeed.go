// Package songfeed provides a client for the externally-hosted song metadata
// feed: two JSON documents, one listing tracks and one listing the playable
// difficulty variants per track.
package songfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/groovematch/groovematch/internal/logger"
)

// FlexInt is an int that can be unmarshaled from either a JSON number or a
// numeric string. The feed is inconsistent about level fields.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler for FlexInt
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s json.Number
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := s.Int64()
		if err != nil {
			return err
		}
		*f = FlexInt(v)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		var v int
		if _, err := fmt.Sscanf(str, "%d", &v); err != nil {
			return fmt.Errorf("FlexInt: cannot parse %q", str)
		}
		*f = FlexInt(v)
		return nil
	}

	return fmt.Errorf("FlexInt: cannot unmarshal %s", string(data))
}

// Int returns the int value
func (f FlexInt) Int() int {
	return int(f)
}

// Track is one track entry from the feed's track list
type Track struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Difficulty is one playable variant of a track
type Difficulty struct {
	MusicID    int     `json:"musicId"`
	Difficulty string  `json:"musicDifficulty"`
	PlayLevel  FlexInt `json:"playLevel"`
}

// Client defines the interface for song feed operations
type Client interface {
	// FetchTracks retrieves the track metadata list
	FetchTracks(ctx context.Context) ([]Track, error)
	// FetchDifficulties retrieves the per-track difficulty variant list
	FetchDifficulties(ctx context.Context) ([]Difficulty, error)
	// BaseURL returns the configured feed base URL
	BaseURL() string
}

// HTTPClient is a real HTTP client for the song feed
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new song feed HTTP client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// BaseURL returns the configured feed base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// FetchTracks retrieves the track metadata list
func (c *HTTPClient) FetchTracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	if err := c.getJSON(ctx, "/musics.json", &tracks); err != nil {
		return nil, err
	}
	c.log.Debug("Fetched tracks from feed", "count", len(tracks))
	return tracks, nil
}

// FetchDifficulties retrieves the per-track difficulty variant list
func (c *HTTPClient) FetchDifficulties(ctx context.Context) ([]Difficulty, error) {
	var diffs []Difficulty
	if err := c.getJSON(ctx, "/musicDifficulties.json", &diffs); err != nil {
		return nil, err
	}
	c.log.Debug("Fetched difficulties from feed", "count", len(diffs))
	return diffs, nil
}

// getJSON performs a GET request and decodes the JSON response into out
func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
