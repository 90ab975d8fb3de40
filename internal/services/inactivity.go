package services

import (
	"context"
	"sync"
	"time"

	"github.com/groovematch/groovematch/internal/logger"
)

const (
	defaultSweepInterval = time.Minute
	// silence before a warning goes out
	defaultWarnAfter = 5 * time.Minute
	// additional silence after a warning before eviction
	defaultEvictAfter = 2 * time.Minute
)

// playerEvicter is what the monitor needs from the room service
type playerEvicter interface {
	EvictPlayer(category string, roomID int, playerID string, silentFor time.Duration)
}

// inactivityRecord tracks one participant's silence in a forming room
type inactivityRecord struct {
	lastActivity time.Time
	warnedAt     *time.Time
}

// InactivityMonitor sweeps forming rooms on a fixed interval, warning
// participants who have gone quiet and evicting those who stay quiet after
// the warning. Rooms that leave the forming state are untracked; any
// activity signal resets a participant's clock and clears a pending warning.
type InactivityMonitor struct {
	log      logger.Logger
	rooms    playerEvicter
	notifier Notifier

	interval   time.Duration
	warnAfter  time.Duration
	evictAfter time.Duration

	mu      sync.Mutex
	records map[roomKey]map[string]*inactivityRecord

	// now is replaceable in tests
	now func() time.Time
}

// NewInactivityMonitor creates a monitor with the default thresholds
func NewInactivityMonitor(log logger.Logger, rooms playerEvicter, notifier Notifier) *InactivityMonitor {
	return &InactivityMonitor{
		log:        log,
		rooms:      rooms,
		notifier:   notifier,
		interval:   defaultSweepInterval,
		warnAfter:  defaultWarnAfter,
		evictAfter: defaultEvictAfter,
		records:    make(map[roomKey]map[string]*inactivityRecord),
		now:        time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (m *InactivityMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.safeSweep()
			}
		}
	}()
}

// safeSweep runs one sweep, keeping the loop alive through panics
func (m *InactivityMonitor) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Inactivity sweep panicked", "panic", r)
		}
	}()
	m.Sweep()
}

// Track begins watching a participant who joined a forming room
func (m *InactivityMonitor) Track(category string, roomID int, playerID string) {
	key := roomKey{Category: category, ID: roomID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[key] == nil {
		m.records[key] = make(map[string]*inactivityRecord)
	}
	m.records[key][playerID] = &inactivityRecord{lastActivity: m.now()}
}

// Untrack stops watching a room entirely (it left the forming state or closed)
func (m *InactivityMonitor) Untrack(category string, roomID int) {
	key := roomKey{Category: category, ID: roomID}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
}

// UntrackPlayer stops watching a single participant (they left or were evicted)
func (m *InactivityMonitor) UntrackPlayer(category string, roomID int, playerID string) {
	key := roomKey{Category: category, ID: roomID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if players, ok := m.records[key]; ok {
		delete(players, playerID)
		if len(players) == 0 {
			delete(m.records, key)
		}
	}
}

// Touch records an activity signal: the participant's clock resets and any
// pending warning is cleared, wherever they are tracked.
func (m *InactivityMonitor) Touch(playerID string) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, players := range m.records {
		if rec, ok := players[playerID]; ok {
			rec.lastActivity = now
			rec.warnedAt = nil
		}
	}
}

// Sweep examines every tracked participant once. Warnings fire after the
// silence threshold; evictions fire once the post-warning grace has also
// elapsed. Eviction calls back into the room service outside the lock.
func (m *InactivityMonitor) Sweep() {
	now := m.now()

	type eviction struct {
		key      roomKey
		playerID string
		silent   time.Duration
	}
	type warning struct {
		key      roomKey
		playerID string
	}
	var evictions []eviction
	var warnings []warning

	m.mu.Lock()
	for key, players := range m.records {
		for playerID, rec := range players {
			silent := now.Sub(rec.lastActivity)
			switch {
			case rec.warnedAt == nil && silent > m.warnAfter:
				warnedAt := now
				rec.warnedAt = &warnedAt
				warnings = append(warnings, warning{key: key, playerID: playerID})
			case rec.warnedAt != nil && now.Sub(*rec.warnedAt) > m.evictAfter:
				evictions = append(evictions, eviction{key: key, playerID: playerID, silent: silent})
			}
		}
	}
	m.mu.Unlock()

	for _, w := range warnings {
		m.log.Info("Inactivity warning", "room", w.key.String(), "player", w.playerID)
		m.notifier.InactivityWarning(w.key.Category, w.key.ID, w.playerID)
	}
	for _, ev := range evictions {
		m.log.Info("Evicting inactive player", "room", ev.key.String(), "player", ev.playerID, "silent", ev.silent)
		m.rooms.EvictPlayer(ev.key.Category, ev.key.ID, ev.playerID, ev.silent)
	}
}
