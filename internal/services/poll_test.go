package services

import (
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/scheduler"
)

func discardLogger() logger.Logger {
	return logger.NewWithWriter(io.Discard, slog.LevelError)
}

// resolution captures one onResolved callback invocation
type resolution struct {
	key    roomKey
	winner *models.Song
}

type resolveRecorder struct {
	mu    sync.Mutex
	calls []resolution
}

func (r *resolveRecorder) record(key roomKey, winner *models.Song) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, resolution{key: key, winner: winner})
}

func (r *resolveRecorder) all() []resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]resolution(nil), r.calls...)
}

// newTestPollEngine builds an engine with a deadline far enough out that only
// explicit Resolve calls end a session.
func newTestPollEngine(seed int64) (*PollEngine, *resolveRecorder) {
	log := discardLogger()
	rec := &resolveRecorder{}
	e := NewPollEngine(log, scheduler.New(log), time.Hour, rand.New(rand.NewSource(seed)))
	e.SetResolvedFunc(rec.record)
	return e, rec
}

func pollCandidates() []models.Song {
	return []models.Song{
		{ID: 1, Title: "Alpha", Difficulty: "master", Level: 30},
		{ID: 2, Title: "Beta", Difficulty: "expert", Level: 29},
		{ID: 3, Title: "Gamma", Difficulty: "append", Level: 31},
	}
}

func TestPollVoteTally(t *testing.T) {
	e, _ := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())

	if _, err := e.Vote(key, "p1", 0); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := e.Vote(key, "p2", 1); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	// p1 changes their mind: the tally moves, it does not double-count
	view, err := e.Vote(key, "p1", 1)
	if err != nil {
		t.Fatalf("vote change failed: %v", err)
	}

	want := []int{0, 2, 0}
	for i, c := range view.Tally {
		if c != want[i] {
			t.Errorf("tally[%d] = %d, want %d", i, c, want[i])
		}
	}
}

func TestPollVoteInvalidChoice(t *testing.T) {
	e, _ := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())

	if _, err := e.Vote(key, "p1", 3); err == nil {
		t.Error("expected error for out-of-range choice")
	}
	if _, err := e.Vote(key, "p1", -1); err == nil {
		t.Error("expected error for negative choice")
	}
}

func TestPollVoteNoSession(t *testing.T) {
	e, _ := newTestPollEngine(1)
	if _, err := e.Vote(roomKey{Category: "open", ID: 9}, "p1", 0); err != ErrNoActivePoll {
		t.Errorf("got %v, want ErrNoActivePoll", err)
	}
}

func TestPollResolveNoVotes(t *testing.T) {
	e, rec := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())

	e.Resolve(key)

	calls := rec.all()
	if len(calls) != 1 {
		t.Fatalf("got %d resolutions, want 1", len(calls))
	}
	if calls[0].winner != nil {
		t.Errorf("winner = %v, want nil for a voteless poll", calls[0].winner)
	}
	if e.Active(key) {
		t.Error("session still active after resolve")
	}
}

func TestPollResolveSingleLeader(t *testing.T) {
	e, rec := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())

	e.Vote(key, "p1", 1)
	e.Vote(key, "p2", 1)
	e.Vote(key, "p3", 0)

	e.Resolve(key)

	calls := rec.all()
	if len(calls) != 1 || calls[0].winner == nil {
		t.Fatalf("expected one resolution with a winner, got %+v", calls)
	}
	if calls[0].winner.ID != 2 {
		t.Errorf("winner = %d, want 2", calls[0].winner.ID)
	}
}

func TestPollResolveTiePicksAmongLeaders(t *testing.T) {
	// Candidates 0 and 1 tie; candidate 2 trails. Whatever the random pick,
	// it must be one of the leaders.
	for seed := int64(0); seed < 20; seed++ {
		e, rec := newTestPollEngine(seed)
		key := roomKey{Category: "open", ID: 1}
		e.Begin(key, pollCandidates())

		e.Vote(key, "p1", 0)
		e.Vote(key, "p2", 0)
		e.Vote(key, "p3", 1)
		e.Vote(key, "p4", 1)
		e.Vote(key, "p5", 2)

		e.Resolve(key)

		calls := rec.all()
		if len(calls) != 1 || calls[0].winner == nil {
			t.Fatalf("seed %d: expected one resolution with a winner", seed)
		}
		if id := calls[0].winner.ID; id != 1 && id != 2 {
			t.Errorf("seed %d: winner = %d, want one of the tied leaders", seed, id)
		}
	}
}

func TestPollResolveIdempotent(t *testing.T) {
	e, rec := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())
	e.Vote(key, "p1", 0)

	e.Resolve(key)
	e.Resolve(key)

	if calls := rec.all(); len(calls) != 1 {
		t.Errorf("got %d resolutions, want 1", len(calls))
	}
}

func TestPollCancelDropsSession(t *testing.T) {
	e, rec := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())
	e.Vote(key, "p1", 0)

	e.Cancel(key)

	if e.Active(key) {
		t.Error("session still active after cancel")
	}
	e.Resolve(key)
	if calls := rec.all(); len(calls) != 0 {
		t.Errorf("cancelled poll still resolved: %+v", calls)
	}
}

func TestPollViewCopiesState(t *testing.T) {
	e, _ := newTestPollEngine(1)
	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())
	e.Vote(key, "p1", 0)

	view, ok := e.View(key)
	if !ok {
		t.Fatal("expected an active session")
	}
	if view.SessionID == "" {
		t.Error("session id is empty")
	}
	view.Tally[0] = 99

	fresh, _ := e.View(key)
	if fresh.Tally[0] != 1 {
		t.Errorf("mutating a view leaked into the session: tally[0] = %d", fresh.Tally[0])
	}
}

func TestPollDeadlineResolves(t *testing.T) {
	log := discardLogger()
	rec := &resolveRecorder{}
	e := NewPollEngine(log, scheduler.New(log), 20*time.Millisecond, rand.New(rand.NewSource(1)))
	e.SetResolvedFunc(rec.record)

	key := roomKey{Category: "open", ID: 1}
	e.Begin(key, pollCandidates())
	e.Vote(key, "p1", 2)

	deadline := time.After(2 * time.Second)
	for {
		if calls := rec.all(); len(calls) == 1 {
			if calls[0].winner == nil || calls[0].winner.ID != 3 {
				t.Fatalf("winner = %+v, want candidate 3", calls[0].winner)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("poll deadline never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
