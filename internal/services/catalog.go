package services

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/groovematch/groovematch/internal/errors"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
	"github.com/groovematch/groovematch/pkg/songfeed"
)

// difficultyPriority is the fixed set of playable difficulty tiers; variants
// outside it are dropped during refresh.
var difficultyPriority = []string{"append", "master", "expert"}

// tierLevelCenters maps each skill tier to the center of its canonical
// chart-level window.
var tierLevelCenters = map[string]int{
	models.TierDiamond:   32,
	models.TierGold:      29,
	models.TierPlacement: 28,
	models.TierBronze:    26,
}

// tierWindowHalf is the half-width of every tier's level window. If a future
// tier gets a different width, mixed-tier rooms fall back to the wider
// default below.
var tierWindowHalf = map[string]int{
	models.TierDiamond:   1,
	models.TierGold:      1,
	models.TierPlacement: 1,
	models.TierBronze:    1,
}

const (
	mixedWindowHalf = 2

	// catalog chart-level bounds; the resolved window is clamped here
	minSampleLevel = 25
	maxSampleLevel = 33

	// songs drawn per level before the total cap applies
	picksPerLevel = 3

	// DefaultCandidateCount is how many songs a poll presents. The
	// community has run with both 9 and 5; it is a config knob.
	DefaultCandidateCount = 9

	defaultRefreshInterval = 6 * time.Hour

	lastRefreshSettingKey = "catalog_last_refresh"
)

// CatalogService holds the current playable song set, refreshed periodically
// from the external feed. The grouped-by-level snapshot is immutable and
// swapped wholesale under the mutex, so samplers never observe a partial
// rebuild.
type CatalogService struct {
	log      logger.Logger
	feed     songfeed.Client
	repo     repository.SongRepository
	settings SettingsServicer

	candidateCount  int
	refreshInterval time.Duration
	// newRand builds a freshly-seeded source per sampling call
	newRand func() *rand.Rand

	mu      sync.Mutex
	byLevel map[int][]models.Song
	size    int
}

// NewCatalogService creates a CatalogService. candidateCount <= 0 selects
// the default.
func NewCatalogService(log logger.Logger, feed songfeed.Client, repo repository.SongRepository, settings SettingsServicer, candidateCount int) *CatalogService {
	if candidateCount <= 0 {
		candidateCount = DefaultCandidateCount
	}
	return &CatalogService{
		log:             log,
		feed:            feed,
		repo:            repo,
		settings:        settings,
		candidateCount:  candidateCount,
		refreshInterval: defaultRefreshInterval,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		byLevel: make(map[int][]models.Song),
	}
}

// SetRandFunc overrides the sampling random source, for deterministic tests
func (s *CatalogService) SetRandFunc(fn func() *rand.Rand) {
	s.newRand = fn
}

// SetRefreshInterval overrides the refresh cadence
func (s *CatalogService) SetRefreshInterval(d time.Duration) {
	s.refreshInterval = d
}

// Start loads the persisted catalog, refreshes eagerly, then refreshes on
// the configured interval until ctx is cancelled.
func (s *CatalogService) Start(ctx context.Context) {
	if err := s.LoadPersisted(ctx); err != nil {
		s.log.Warn("Could not load persisted catalog", "error", err)
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("Initial catalog refresh failed, keeping persisted snapshot", "error", err)
	}

	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.log.Warn("Scheduled catalog refresh failed, retrying next interval", "error", err)
				}
			}
		}
	}()
}

// LoadPersisted seeds the snapshot from the song table, so a restart with an
// unreachable feed still has a catalog.
func (s *CatalogService) LoadPersisted(ctx context.Context) error {
	songs, err := s.repo.ListSongs(ctx)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return nil
	}
	s.swap(songs)
	s.log.Info("Loaded persisted song catalog", "songs", len(songs))
	return nil
}

// Refresh fetches the two feed documents, joins them, filters to the
// priority difficulty set and swaps the snapshot. Any fetch failure or an
// empty feed leaves the previous catalog untouched.
func (s *CatalogService) Refresh(ctx context.Context) error {
	tracks, err := s.feed.FetchTracks(ctx)
	if err != nil {
		return errors.ExternalFetch(err, "fetching track list")
	}
	diffs, err := s.feed.FetchDifficulties(ctx)
	if err != nil {
		return errors.ExternalFetch(err, "fetching difficulty list")
	}

	titles := make(map[int]string, len(tracks))
	for _, t := range tracks {
		titles[t.ID] = t.Title
	}

	allowed := make(map[string]bool, len(difficultyPriority))
	for _, d := range difficultyPriority {
		allowed[d] = true
	}

	var songs []models.Song
	for _, d := range diffs {
		if !allowed[d.Difficulty] {
			continue
		}
		title, ok := titles[d.MusicID]
		if !ok {
			continue
		}
		songs = append(songs, models.Song{
			ID:         d.MusicID,
			Title:      title,
			Difficulty: d.Difficulty,
			Level:      d.PlayLevel.Int(),
		})
	}

	if len(songs) == 0 {
		s.log.Warn("Feed returned no usable songs, keeping previous catalog")
		return nil
	}

	s.swap(songs)

	if err := s.repo.ReplaceSongs(ctx, songs); err != nil {
		// Snapshot already swapped; persistence is best effort.
		s.log.Error("Failed to persist song catalog", "error", err)
	}
	if s.settings != nil {
		if err := s.settings.SetSetting(ctx, lastRefreshSettingKey,
			strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
			s.log.Warn("Failed to record catalog refresh time", "error", err)
		}
	}

	s.log.Info("Song catalog updated", "songs", len(songs))
	return nil
}

// swap replaces the grouped snapshot wholesale
func (s *CatalogService) swap(songs []models.Song) {
	grouped := make(map[int][]models.Song)
	for _, song := range songs {
		grouped[song.Level] = append(grouped[song.Level], song)
	}
	s.mu.Lock()
	s.byLevel = grouped
	s.size = len(songs)
	s.mu.Unlock()
}

// Size returns the number of entries in the current snapshot
func (s *CatalogService) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// LevelRange resolves the chart-level window for the given participant
// tiers: average of the tiers' window centers, widened by the common per-tier
// half-width (or the mixed default), clamped to catalog bounds.
func (s *CatalogService) LevelRange(tiers []string) (int, int) {
	var centers []int
	half := -1
	uniform := true
	for _, tier := range tiers {
		c, ok := tierLevelCenters[tier]
		if !ok {
			continue
		}
		centers = append(centers, c)
		h := tierWindowHalf[tier]
		if half == -1 {
			half = h
		} else if half != h {
			uniform = false
		}
	}

	if len(centers) == 0 {
		// improbable fallback, mirrors an all-unknown-tier room
		return 27, 29
	}

	sum := 0
	for _, c := range centers {
		sum += c
	}
	center := int(float64(sum)/float64(len(centers)) + 0.5)

	if half == -1 || !uniform {
		half = mixedWindowHalf
	}

	lo := center - half
	if lo < minSampleLevel {
		lo = minSampleLevel
	}
	hi := center + half
	if hi > maxSampleLevel {
		hi = maxSampleLevel
	}
	return lo, hi
}

// Sample draws up to the configured candidate count from [lo, hi]: each
// level from hi down to lo is shuffled and contributes up to three songs.
// Levels with fewer songs contribute what they have.
func (s *CatalogService) Sample(lo, hi int) []models.Song {
	rng := s.newRand()

	s.mu.Lock()
	defer s.mu.Unlock()

	var picks []models.Song
	for lvl := hi; lvl >= lo; lvl-- {
		entries := s.byLevel[lvl]
		if len(entries) == 0 {
			continue
		}
		shuffled := append([]models.Song(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		take := picksPerLevel
		if take > len(shuffled) {
			take = len(shuffled)
		}
		picks = append(picks, shuffled[:take]...)
	}

	if len(picks) > s.candidateCount {
		picks = picks[:s.candidateCount]
	}
	return picks
}
