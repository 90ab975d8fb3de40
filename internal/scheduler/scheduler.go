// Package scheduler runs delayed, cancellable tasks keyed by string. Room
// timers (poll deadlines, confirmation windows, archival deletions) are
// scheduled here so an early state transition can cancel them before they
// fire against a room that no longer exists.
package scheduler

import (
	"sync"
	"time"

	"github.com/groovematch/groovematch/internal/logger"
)

// Scheduler tracks pending timers by key. Scheduling an existing key
// replaces the previous timer.
type Scheduler struct {
	log    logger.Logger
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates an empty Scheduler
func New(log logger.Logger) *Scheduler {
	return &Scheduler{
		log:    log,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule runs fn after d unless the key is cancelled first. A panic inside
// fn is recovered and logged; it must not take down the process.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(d, func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("scheduled task panicked", "key", key, "panic", r)
			}
		}()
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops the timer for key if one is pending
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// CancelAll stops every pending timer
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports whether a timer is scheduled for key
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}
