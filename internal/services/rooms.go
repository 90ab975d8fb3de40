package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teris-io/shortid"

	"github.com/groovematch/groovematch/internal/errors"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
	"github.com/groovematch/groovematch/internal/scheduler"
)

const (
	// DefaultRoomCapacity is the participant count that triggers the song poll
	DefaultRoomCapacity = 5

	defaultConfirmWindow = 60 * time.Second
	defaultArchiveDelay  = 2 * time.Minute
	defaultListInterval  = 15 * time.Second
)

// performanceLineRe matches one submitted result line:
// a player id (optionally mention-wrapped), a two-letter country code in
// brackets, and five comma-separated hit counts best-to-worst.
var performanceLineRe = regexp.MustCompile(
	`^(?:<@!?(\d+)>|(\S+))\s*\[([A-Za-z]{2})\]\s*(\d+),(\d+),(\d+),(\d+),(\d+)$`)

// participant is a room member with their rating as cached at join time and
// refreshed when results commit
type participant struct {
	userID string
	mmr    int
	tier   string
}

// pendingConfirmation is a staged result waiting for a majority of the room
// to approve it. Ratings are untouched until it passes.
type pendingConfirmation struct {
	txs      []models.RatingTransaction
	votes    map[string]bool
	deadline time.Time
}

// room is the manager-owned mutable state of one matchmaking group. All
// access goes through the RoomService mutex.
type room struct {
	id         int
	externalID string
	category   string
	name       string
	players    []participant
	state      models.RoomState
	createdAt  time.Time
	closed     bool
	finished   bool
	winner     *models.Song
	pending    *pendingConfirmation
}

func (r *room) averageMMR() int {
	if len(r.players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range r.players {
		sum += p.mmr
	}
	return sum / len(r.players)
}

func (r *room) hasPlayer(playerID string) bool {
	for _, p := range r.players {
		if p.userID == playerID {
			return true
		}
	}
	return false
}

func (r *room) key() roomKey {
	return roomKey{Category: r.category, ID: r.id}
}

func (r *room) view() models.RoomView {
	members := make([]models.RoomMember, len(r.players))
	for i, p := range r.players {
		members[i] = models.RoomMember{UserID: p.userID, MMR: p.mmr, Tier: p.tier}
	}
	return models.RoomView{
		ID:         r.id,
		ExternalID: r.externalID,
		Category:   r.category,
		Name:       r.name,
		State:      r.state,
		AverageMMR: r.averageMMR(),
		Members:    members,
		CreatedAt:  r.createdAt,
	}
}

// RoomConfig tunes the room lifecycle
type RoomConfig struct {
	// Capacity is the participant count that triggers voting (2-5)
	Capacity int
	// ConfirmWindow bounds the result-confirmation vote
	ConfirmWindow time.Duration
	// ArchiveDelay is how long a finished room lingers before deletion
	ArchiveDelay time.Duration
	// ListInterval is the cadence of the room-list broadcast
	ListInterval time.Duration
}

// DefaultRoomConfig returns the production configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		Capacity:      DefaultRoomCapacity,
		ConfirmWindow: defaultConfirmWindow,
		ArchiveDelay:  defaultArchiveDelay,
		ListInterval:  defaultListInterval,
	}
}

// RoomService owns every room: creation, matching, the state machine, and
// the orchestration of polls, confirmations and timers. All room mutation is
// serialized through its mutex, so a capacity check and the insertion it
// guards can never interleave with another join.
type RoomService struct {
	log      logger.Logger
	repo     repository.PlayerRepository
	catalog  CatalogServicer
	notifier Notifier
	sched    *scheduler.Scheduler
	polls    *PollEngine
	monitor  *InactivityMonitor
	cfg      RoomConfig

	mu     sync.Mutex
	rooms  map[string]map[int]*room // category -> room id -> room
	nextID map[string]int
}

var _ RoomServicer = (*RoomService)(nil)

// NewRoomService creates a RoomService and registers itself as the poll
// engine's resolution target.
func NewRoomService(log logger.Logger, repo repository.PlayerRepository, catalog CatalogServicer, notifier Notifier, sched *scheduler.Scheduler, polls *PollEngine, cfg RoomConfig) *RoomService {
	if cfg.Capacity < 2 || cfg.Capacity > 5 {
		cfg.Capacity = DefaultRoomCapacity
	}
	if cfg.ConfirmWindow <= 0 {
		cfg.ConfirmWindow = defaultConfirmWindow
	}
	if cfg.ArchiveDelay <= 0 {
		cfg.ArchiveDelay = defaultArchiveDelay
	}
	if cfg.ListInterval <= 0 {
		cfg.ListInterval = defaultListInterval
	}

	s := &RoomService{
		log:      log,
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		sched:    sched,
		polls:    polls,
		cfg:      cfg,
		rooms:    make(map[string]map[int]*room),
		nextID:   make(map[string]int),
	}
	polls.SetResolvedFunc(s.handlePollResolved)
	return s
}

// SetMonitor attaches the inactivity monitor. Done after construction
// because the monitor needs the service as its eviction target.
func (s *RoomService) SetMonitor(m *InactivityMonitor) {
	s.monitor = m
}

// Start broadcasts the per-category room list on the configured interval
// until ctx is cancelled.
func (s *RoomService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.ListInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.broadcastRoomLists()
			}
		}
	}()
}

func (s *RoomService) broadcastRoomLists() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Room list broadcast panicked", "panic", r)
		}
	}()
	for _, category := range s.Categories() {
		s.notifier.RoomList(category, s.ListRooms(category))
	}
}

// Join places the player into the open room in the category whose average
// rating is nearest their own, creating a new room when none fits. Reaching
// capacity starts the song poll.
func (s *RoomService) Join(ctx context.Context, playerID, category string) (*models.RoomView, error) {
	if playerID == "" || category == "" {
		return nil, errors.InvalidInput("player id and category are required")
	}

	// Upserts the default (0, Placement) row on first contact.
	p, err := s.repo.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "loading player rating")
	}

	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	category = strings.ToLower(category)
	for _, r := range s.rooms[category] {
		if !r.closed && r.hasPlayer(playerID) {
			return nil, ErrAlreadyInRoom
		}
	}

	target := s.bestRoomLocked(category, p.MMR)
	if target == nil {
		target = s.createRoomLocked(category, &events)
	}

	// Capacity is re-checked here, inside the critical section: the matcher
	// above and this append cannot interleave with another Join.
	if len(target.players) >= s.cfg.Capacity {
		return nil, errors.Internalf("matched room %s is full", target.key())
	}
	target.players = append(target.players, participant{userID: playerID, mmr: p.MMR, tier: p.Tier})
	if s.monitor != nil {
		s.monitor.Track(category, target.id, playerID)
	}

	s.log.Info("Player joined room", "player", playerID, "room", target.key().String(), "mmr", p.MMR)
	view := target.view()
	mmr := p.MMR
	events = append(events, func() { s.notifier.PlayerJoined(view, playerID, mmr) })

	if len(target.players) == s.cfg.Capacity {
		s.startVotingLocked(target, &events)
	}
	s.resortLocked(category, &events)

	out := target.view()
	return &out, nil
}

// bestRoomLocked is the greedy nearest-average matcher: a single pass over
// the category's open rooms, ties broken by creation order.
func (s *RoomService) bestRoomLocked(category string, mmr int) *room {
	ids := make([]int, 0, len(s.rooms[category]))
	for id := range s.rooms[category] {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var best *room
	bestDiff := 0
	for _, id := range ids {
		r := s.rooms[category][id]
		if r.closed || r.state != models.RoomForming || len(r.players) >= s.cfg.Capacity || len(r.players) == 0 {
			continue
		}
		diff := r.averageMMR() - mmr
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	return best
}

func (s *RoomService) createRoomLocked(category string, events *[]func()) *room {
	s.nextID[category]++
	id := s.nextID[category]

	externalID, err := shortid.Generate()
	if err != nil {
		// shortid only fails on mis-configured workers; fall back to the key
		externalID = fmt.Sprintf("%s-%d", category, id)
	}

	r := &room{
		id:         id,
		externalID: externalID,
		category:   category,
		name:       fmt.Sprintf("room-%d", id),
		state:      models.RoomForming,
		createdAt:  time.Now(),
	}
	if s.rooms[category] == nil {
		s.rooms[category] = make(map[int]*room)
	}
	s.rooms[category][id] = r

	s.log.Info("Room created", "room", r.key().String(), "external_id", externalID)
	view := r.view()
	*events = append(*events, func() { s.notifier.RoomCreated(view) })
	return r
}

// startVotingLocked moves a full room into the voting state and opens the
// song poll over a freshly sampled candidate set.
func (s *RoomService) startVotingLocked(r *room, events *[]func()) {
	r.state = models.RoomVoting
	if s.monitor != nil {
		s.monitor.Untrack(r.category, r.id)
	}

	tiers := make([]string, len(r.players))
	for i, p := range r.players {
		tiers[i] = p.tier
	}
	lo, hi := s.catalog.LevelRange(tiers)
	songs := s.catalog.Sample(lo, hi)

	view := r.view()
	if len(songs) == 0 {
		s.log.Warn("No songs available in level range", "room", r.key().String(), "lo", lo, "hi", hi)
		*events = append(*events, func() { s.notifier.PollResolved(view, nil) })
		return
	}

	poll := s.polls.Begin(r.key(), songs)
	*events = append(*events, func() { s.notifier.PollStarted(view, poll) })
}

// handlePollResolved is the poll engine's callback. A nil winner (no votes)
// leaves the room in the voting state awaiting an explicit retry.
func (s *RoomService) handlePollResolved(key roomKey, winner *models.Song) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key.Category][key.ID]
	if !ok || r.closed {
		// room went away before the deadline fired
		return
	}

	if winner != nil {
		r.winner = winner
		r.state = models.RoomActive
	}
	view := r.view()
	events = append(events, func() { s.notifier.PollResolved(view, winner) })
}

// CastVote relays a participant's song choice into the poll engine
func (s *RoomService) CastVote(_ context.Context, category string, roomID int, playerID string, choice int) (*models.PollView, error) {
	s.mu.Lock()
	r, ok := s.rooms[strings.ToLower(category)][roomID]
	if !ok || r.closed {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	if r.state != models.RoomVoting {
		s.mu.Unlock()
		return nil, ErrRoomNotVoting
	}
	if !r.hasPlayer(playerID) {
		s.mu.Unlock()
		return nil, ErrNotParticipant
	}
	key := r.key()
	s.mu.Unlock()

	view, err := s.polls.Vote(key, playerID, choice)
	if err != nil {
		return nil, err
	}
	if s.monitor != nil {
		s.monitor.Touch(playerID)
	}
	return &view, nil
}

// RetryPoll relaunches the song poll after a no-votes outcome. It is the
// explicit recovery command for a room parked in the voting state.
func (s *RoomService) RetryPoll(_ context.Context, category string, roomID int) error {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[strings.ToLower(category)][roomID]
	if !ok || r.closed {
		return ErrRoomNotFound
	}
	if r.state != models.RoomVoting {
		return ErrRoomNotVoting
	}
	if s.polls.Active(r.key()) {
		return ErrPollInProgress
	}

	s.startVotingLocked(r, &events)
	return nil
}

// Leave removes the player from whichever room holds them. An emptied room
// closes immediately, skipping the archival delay.
func (s *RoomService) Leave(_ context.Context, playerID string) (*models.RoomView, error) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	for category, rooms := range s.rooms {
		for _, r := range rooms {
			if r.closed || !r.hasPlayer(playerID) {
				continue
			}
			s.removePlayerLocked(r, playerID)
			s.log.Info("Player left room", "player", playerID, "room", r.key().String())
			view := r.view()
			events = append(events, func() { s.notifier.PlayerLeft(view, playerID) })

			if len(r.players) == 0 {
				s.closeRoomLocked(r, &events)
			}
			s.resortLocked(category, &events)
			return &view, nil
		}
	}
	return nil, ErrNotInRoom
}

// EvictPlayer removes a silent participant from a forming room on behalf of
// the inactivity monitor.
func (s *RoomService) EvictPlayer(category string, roomID int, playerID string, silentFor time.Duration) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[category][roomID]
	if !ok || r.closed || r.state != models.RoomForming || !r.hasPlayer(playerID) {
		// the room moved on while the sweep was running
		return
	}

	s.removePlayerLocked(r, playerID)
	s.log.Info("Player evicted for inactivity", "player", playerID, "room", r.key().String(), "silent", silentFor)
	events = append(events, func() { s.notifier.PlayerEvicted(category, roomID, playerID) })

	if len(r.players) == 0 {
		s.closeRoomLocked(r, &events)
	}
	s.resortLocked(category, &events)
}

func (s *RoomService) removePlayerLocked(r *room, playerID string) {
	for i, p := range r.players {
		if p.userID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	if s.monitor != nil {
		s.monitor.UntrackPlayer(r.category, r.id, playerID)
	}
}

// Activity records an activity signal for the player
func (s *RoomService) Activity(playerID string) {
	if s.monitor != nil {
		s.monitor.Touch(playerID)
	}
}

// Submit validates a result block (one line per participant), computes the
// rating transactions and stages them behind a confirmation vote. Nothing is
// persisted until a majority approves.
func (s *RoomService) Submit(ctx context.Context, category string, roomID int, block string) (*PendingResult, error) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[strings.ToLower(category)][roomID]
	if !ok || r.closed {
		return nil, ErrRoomNotFound
	}
	if r.finished {
		return nil, ErrRoomFinished
	}
	if r.state != models.RoomActive {
		return nil, ErrRoomNotActive
	}

	lines := splitResultLines(block)
	if len(lines) != len(r.players) {
		return nil, errors.Validationf("expected %d result lines, got %d", len(r.players), len(lines))
	}

	records := make([]PerformanceRecord, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		rec, err := parsePerformanceLine(line)
		if err != nil {
			return nil, err
		}
		if !r.hasPlayer(rec.PlayerID) {
			return nil, errors.Validationf("player %s is not in this room", rec.PlayerID)
		}
		if seen[rec.PlayerID] {
			return nil, errors.Validationf("duplicate result line for player %s", rec.PlayerID)
		}
		seen[rec.PlayerID] = true

		p, err := s.repo.GetPlayer(ctx, rec.PlayerID)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "loading player rating")
		}
		rec.Rating = p.MMR
		rec.Tier = p.Tier
		records = append(records, rec)
	}

	txs := ComputeTransactions(records)

	r.state = models.RoomSubmitted
	r.pending = &pendingConfirmation{
		txs:      txs,
		votes:    make(map[string]bool),
		deadline: time.Now().Add(s.cfg.ConfirmWindow),
	}

	key := r.key()
	s.sched.Schedule("confirm/"+key.String(), s.cfg.ConfirmWindow, func() {
		s.confirmationTimeout(key)
	})

	s.log.Info("Results submitted, awaiting confirmation", "room", key.String(),
		"threshold", s.confirmThreshold(r), "deadline", r.pending.deadline)

	view := r.view()
	pendingTxs := txs
	deadline := r.pending.deadline
	events = append(events, func() { s.notifier.ResultsPending(view, pendingTxs, deadline) })

	return &PendingResult{
		Room:         view,
		Transactions: txs,
		Deadline:     deadline,
		Threshold:    s.confirmThreshold(r),
	}, nil
}

func (s *RoomService) confirmThreshold(r *room) int {
	return len(r.players)/2 + 1
}

// ConfirmResult records a participant's approve/reject vote on the staged
// result. A majority either way resolves immediately.
func (s *RoomService) ConfirmResult(ctx context.Context, category string, roomID int, playerID string, approve bool) error {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[strings.ToLower(category)][roomID]
	if !ok || r.closed {
		return ErrRoomNotFound
	}
	if r.state != models.RoomSubmitted || r.pending == nil {
		return ErrNoPendingResult
	}
	if !r.hasPlayer(playerID) {
		return ErrNotParticipant
	}

	r.pending.votes[playerID] = approve

	approvals, rejections := 0, 0
	for _, v := range r.pending.votes {
		if v {
			approvals++
		} else {
			rejections++
		}
	}

	threshold := s.confirmThreshold(r)
	switch {
	case approvals >= threshold:
		s.sched.Cancel("confirm/" + r.key().String())
		s.commitResultLocked(ctx, r, &events)
	case rejections >= threshold:
		s.sched.Cancel("confirm/" + r.key().String())
		s.revertResultLocked(r, "rejected by majority", &events)
	}
	return nil
}

// confirmationTimeout resolves a confirmation vote whose window elapsed:
// partial tally, commit only on a standing majority in favor.
func (s *RoomService) confirmationTimeout(key roomKey) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key.Category][key.ID]
	if !ok || r.closed || r.pending == nil {
		return
	}

	approvals := 0
	for _, v := range r.pending.votes {
		if v {
			approvals++
		}
	}
	if approvals >= s.confirmThreshold(r) {
		s.commitResultLocked(context.Background(), r, &events)
		return
	}

	ambiguous := errors.AmbiguousVote("confirmation vote timed out without a majority")
	s.log.Warn("Reverting submission", "room", key.String(), "reason", ambiguous.Message)
	s.revertResultLocked(r, ambiguous.Message, &events)
}

// commitResultLocked applies the staged transactions to the rating store.
// Each participant is written independently: one failed write is logged and
// skipped, never blocking the rest of the batch.
func (s *RoomService) commitResultLocked(ctx context.Context, r *room, events *[]func()) {
	txs := r.pending.txs
	for _, tx := range txs {
		if err := s.repo.SetRating(ctx, tx.PlayerID, tx.Result, tx.Tier); err != nil {
			s.log.Error("Rating update failed", "player", tx.PlayerID,
				"rating", tx.Result, "tier", tx.Tier, "error", err)
			continue
		}
		for i := range r.players {
			if r.players[i].userID == tx.PlayerID {
				r.players[i].mmr = tx.Result
				r.players[i].tier = tx.Tier
			}
		}
	}

	r.pending = nil
	r.finished = true
	r.state = models.RoomFinished

	key := r.key()
	s.sched.Schedule("archive/"+key.String(), s.cfg.ArchiveDelay, func() {
		s.archiveRoom(key)
	})

	s.log.Info("Results confirmed and ratings updated", "room", key.String(), "players", len(txs))
	view := r.view()
	*events = append(*events, func() { s.notifier.ResultsCommitted(view, txs) })
	s.resortLocked(r.category, events)
}

// revertResultLocked returns a submitted room to the active state without
// touching any rating.
func (s *RoomService) revertResultLocked(r *room, reason string, events *[]func()) {
	r.pending = nil
	r.state = models.RoomActive

	view := r.view()
	*events = append(*events, func() { s.notifier.ResultsRejected(view, reason) })
}

// archiveRoom deletes a finished room once its archival delay elapses
func (s *RoomService) archiveRoom(key roomKey) {
	var events []func()
	defer runAll(&events)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key.Category][key.ID]
	if !ok || r.closed {
		return
	}
	s.closeRoomLocked(r, &events)
	s.resortLocked(key.Category, &events)
}

// closeRoomLocked tears a room down: cancels its timers, drops it from the
// table and notifies the presentation layer. No operations on its id are
// valid afterwards.
func (s *RoomService) closeRoomLocked(r *room, events *[]func()) {
	key := r.key()
	r.closed = true
	r.state = models.RoomClosed

	s.polls.Cancel(key)
	s.sched.Cancel("confirm/" + key.String())
	s.sched.Cancel("archive/" + key.String())
	if s.monitor != nil {
		s.monitor.Untrack(r.category, r.id)
	}

	delete(s.rooms[r.category], r.id)
	s.log.Info("Room closed", "room", key.String())

	name := r.name
	*events = append(*events, func() { s.notifier.RoomClosed(key.Category, key.ID, name) })
}

// resortLocked rank-orders a category's rooms by average rating and renames
// them so room-1 is always the strongest table.
func (s *RoomService) resortLocked(category string, events *[]func()) {
	rooms := make([]*room, 0, len(s.rooms[category]))
	for _, r := range s.rooms[category] {
		if !r.closed {
			rooms = append(rooms, r)
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		ai, aj := rooms[i].averageMMR(), rooms[j].averageMMR()
		if ai != aj {
			return ai > aj
		}
		return rooms[i].id < rooms[j].id
	})

	for i, r := range rooms {
		name := "room-" + strconv.Itoa(i+1)
		if r.name == name {
			continue
		}
		r.name = name
		id := r.id
		*events = append(*events, func() { s.notifier.RoomRenamed(category, id, name) })
	}
}

// ListRooms returns the category's open rooms in display (rank) order
func (s *RoomService) ListRooms(category string) []models.RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]models.RoomView, 0, len(s.rooms[category]))
	for _, r := range s.rooms[category] {
		if !r.closed {
			views = append(views, r.view())
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// Categories returns every queue category with at least one room
func (s *RoomService) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categories []string
	for category, rooms := range s.rooms {
		if len(rooms) > 0 {
			categories = append(categories, category)
		}
	}
	sort.Strings(categories)
	return categories
}

// Room returns a view of one room
func (s *RoomService) Room(category string, roomID int) (*models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[strings.ToLower(category)][roomID]
	if !ok || r.closed {
		return nil, ErrRoomNotFound
	}
	view := r.view()
	return &view, nil
}

// RoomByExternalID resolves a room from its short join-link id
func (s *RoomService) RoomByExternalID(externalID string) (*models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rooms := range s.rooms {
		for _, r := range rooms {
			if !r.closed && r.externalID == externalID {
				view := r.view()
				return &view, nil
			}
		}
	}
	return nil, ErrRoomNotFound
}

// splitResultLines trims a submitted block into its non-empty lines
func splitResultLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// parsePerformanceLine parses one "<id> [CC] p,g,gd,b,m" result line. The
// rating fields are filled in by the caller.
func parsePerformanceLine(line string) (PerformanceRecord, error) {
	m := performanceLineRe.FindStringSubmatch(line)
	if m == nil {
		return PerformanceRecord{}, errors.Validationf("malformed result line: %q", line)
	}

	playerID := m[1]
	if playerID == "" {
		playerID = m[2]
	}

	rec := PerformanceRecord{
		PlayerID: playerID,
		Country:  strings.ToUpper(m[3]),
	}
	for i := 0; i < 5; i++ {
		n, err := strconv.Atoi(m[4+i])
		if err != nil {
			return PerformanceRecord{}, errors.Validationf("malformed hit count in line: %q", line)
		}
		rec.Counts[i] = n
	}
	return rec, nil
}

// runAll fires the notifications accumulated during a locked section; it is
// registered before the lock so events go out after the mutex is released.
func runAll(events *[]func()) {
	for _, fn := range *events {
		fn()
	}
}
