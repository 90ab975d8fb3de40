package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/scheduler"
)

// defaultPollWindow is how long voters have before a poll resolves
const defaultPollWindow = 60 * time.Second

// roomKey identifies a room across queue categories
type roomKey struct {
	Category string
	ID       int
}

func (k roomKey) String() string {
	return fmt.Sprintf("%s/%d", k.Category, k.ID)
}

// pollSession is one timed single-choice vote. votes and counts are kept
// consistent on every mutation: counts[i] always equals the number of voters
// currently pointing at candidate i.
type pollSession struct {
	id         string
	candidates []models.Song
	votes      map[string]int
	counts     []int
	deadline   time.Time
}

func (p *pollSession) view() models.PollView {
	return models.PollView{
		SessionID:  p.id,
		Candidates: append([]models.Song(nil), p.candidates...),
		Tally:      append([]int(nil), p.counts...),
		Deadline:   p.deadline,
	}
}

// PollEngine runs the time-boxed song votes. Each room has at most one
// session; deadlines are cancellable scheduler tasks so a room closing early
// never gets a late resolution.
type PollEngine struct {
	log    logger.Logger
	sched  *scheduler.Scheduler
	window time.Duration

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[roomKey]*pollSession

	// onResolved is invoked outside the engine lock with the winning song,
	// or nil when no votes were cast
	onResolved func(key roomKey, winner *models.Song)
}

// NewPollEngine creates a PollEngine. rng may be nil, in which case a
// time-seeded source is used; tests inject a fixed seed.
func NewPollEngine(log logger.Logger, sched *scheduler.Scheduler, window time.Duration, rng *rand.Rand) *PollEngine {
	if window <= 0 {
		window = defaultPollWindow
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PollEngine{
		log:      log,
		sched:    sched,
		window:   window,
		rng:      rng,
		sessions: make(map[roomKey]*pollSession),
	}
}

// SetResolvedFunc registers the resolution callback
func (e *PollEngine) SetResolvedFunc(fn func(key roomKey, winner *models.Song)) {
	e.onResolved = fn
}

// Begin opens a session for the room and schedules its deadline
func (e *PollEngine) Begin(key roomKey, candidates []models.Song) models.PollView {
	e.mu.Lock()
	session := &pollSession{
		id:         uuid.NewString(),
		candidates: append([]models.Song(nil), candidates...),
		votes:      make(map[string]int),
		counts:     make([]int, len(candidates)),
		deadline:   time.Now().Add(e.window),
	}
	e.sessions[key] = session
	view := session.view()
	e.mu.Unlock()

	e.sched.Schedule("poll/"+key.String(), e.window, func() {
		e.Resolve(key)
	})

	e.log.Info("Song poll started", "room", key.String(), "candidates", len(candidates))
	return view
}

// Active reports whether the room has a running session
func (e *PollEngine) Active(key roomKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[key]
	return ok
}

// View returns the session state for the room
func (e *PollEngine) View(key roomKey) (models.PollView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[key]
	if !ok {
		return models.PollView{}, false
	}
	return session.view(), true
}

// Vote casts or changes a voter's single choice. Changing a vote moves the
// tally from the old candidate to the new one.
func (e *PollEngine) Vote(key roomKey, voterID string, choice int) (models.PollView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[key]
	if !ok {
		return models.PollView{}, ErrNoActivePoll
	}
	if choice < 0 || choice >= len(session.candidates) {
		return models.PollView{}, ErrInvalidChoice(choice, len(session.candidates))
	}

	if prev, voted := session.votes[voterID]; voted {
		session.counts[prev]--
	}
	session.votes[voterID] = choice
	session.counts[choice]++

	return session.view(), nil
}

// Cancel drops the room's session and its deadline without resolving
func (e *PollEngine) Cancel(key roomKey) {
	e.sched.Cancel("poll/" + key.String())
	e.mu.Lock()
	delete(e.sessions, key)
	e.mu.Unlock()
}

// Resolve closes the room's session: no votes means no winner, otherwise the
// top candidate wins with a uniform random pick among ties. The resolution
// callback runs outside the engine lock.
func (e *PollEngine) Resolve(key roomKey) {
	e.mu.Lock()
	session, ok := e.sessions[key]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.sessions, key)

	var winner *models.Song
	if len(session.votes) > 0 {
		max := 0
		for _, c := range session.counts {
			if c > max {
				max = c
			}
		}
		var tied []int
		for i, c := range session.counts {
			if c == max {
				tied = append(tied, i)
			}
		}
		pick := tied[0]
		if len(tied) > 1 {
			pick = tied[e.rng.Intn(len(tied))]
		}
		song := session.candidates[pick]
		winner = &song
	}
	e.mu.Unlock()

	if winner == nil {
		e.log.Info("Song poll closed with no votes", "room", key.String())
	} else {
		e.log.Info("Song poll resolved", "room", key.String(), "winner", winner.Title)
	}

	if e.onResolved != nil {
		e.onResolved(key, winner)
	}
}
