package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groovematch/groovematch/internal/handlers"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository/mock"
	"github.com/groovematch/groovematch/internal/scheduler"
	"github.com/groovematch/groovematch/internal/services"
	"github.com/groovematch/groovematch/internal/websocket"
	"github.com/groovematch/groovematch/pkg/songfeed"
)

type testStack struct {
	server *httptest.Server
	repo   *mock.Repository
	feed   *songfeed.MockClient
}

// newTestStack wires the full service graph over in-memory fakes and serves
// the real router.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, slog.LevelError)
	repo := mock.New()

	feed := songfeed.NewMockClient()
	feed.SetFeed(
		[]songfeed.Track{{ID: 1, Title: "Alpha"}, {ID: 2, Title: "Beta"}, {ID: 3, Title: "Gamma"}},
		[]songfeed.Difficulty{
			{MusicID: 1, Difficulty: "master", PlayLevel: 28},
			{MusicID: 2, Difficulty: "expert", PlayLevel: 29},
			{MusicID: 3, Difficulty: "append", PlayLevel: 29},
		},
	)

	sched := scheduler.New(log)
	hub := websocket.New(log)
	hub.Start()

	settingsSvc := services.NewSettingsService(log, repo)
	catalogSvc := services.NewCatalogService(log, feed, repo, settingsSvc, 0)
	if err := catalogSvc.Refresh(context.Background()); err != nil {
		t.Fatalf("priming catalog: %v", err)
	}
	polls := services.NewPollEngine(log, sched, time.Hour, rand.New(rand.NewSource(5)))

	cfg := services.DefaultRoomConfig()
	cfg.Capacity = 2
	cfg.ConfirmWindow = time.Hour
	cfg.ArchiveDelay = time.Hour
	roomSvc := services.NewRoomService(log, repo, catalogSvc, hub, sched, polls, cfg)
	monitor := services.NewInactivityMonitor(log, roomSvc, hub)
	roomSvc.SetMonitor(monitor)
	hub.SetRoomLister(roomSvc)

	h := handlers.New(roomSvc, services.NewLeaderboardService(log, repo), catalogSvc, settingsSvc, hub, log)

	server := httptest.NewServer(h.Router())
	t.Cleanup(func() {
		server.Close()
		sched.CancelAll()
	})
	return &testStack{server: server, repo: repo, feed: feed}
}

func (s *testStack) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(s.server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (s *testStack) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)
	return body.Code
}

func TestJoinEndpoint(t *testing.T) {
	s := newTestStack(t)

	resp := s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var view models.RoomView
	decodeBody(t, resp, &view)
	if view.Name != "room-1" || view.Category != "open" {
		t.Errorf("room = %s/%s, want room-1/open", view.Name, view.Category)
	}
	if len(view.Members) != 1 {
		t.Errorf("members = %d, want 1", len(view.Members))
	}
}

func TestJoinDuplicateConflict(t *testing.T) {
	s := newTestStack(t)
	s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`).Body.Close()

	resp := s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != handlers.ErrCodeConflict {
		t.Errorf("code = %s, want %s", code, handlers.ErrCodeConflict)
	}
}

func TestJoinRejectsUnknownFields(t *testing.T) {
	s := newTestStack(t)

	resp := s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open","mmr":9999}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestStack(t)

	resp := s.get(t, "/api/rooms/open/42")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != handlers.ErrCodeNotFound {
		t.Errorf("code = %s, want %s", code, handlers.ErrCodeNotFound)
	}
}

func TestFullMatchOverHTTP(t *testing.T) {
	s := newTestStack(t)

	// fill the two-seat room; the second join trips the song poll
	s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`).Body.Close()
	resp := s.post(t, "/api/rooms/join", `{"player_id":"p2","category":"open"}`)
	var view models.RoomView
	decodeBody(t, resp, &view)
	if view.State != models.RoomVoting {
		t.Fatalf("state = %s after fill, want voting", view.State)
	}

	voteResp := s.post(t, "/api/rooms/open/1/poll/votes", `{"player_id":"p1","choice":0}`)
	if voteResp.StatusCode != http.StatusOK {
		t.Fatalf("vote status = %d, want 200", voteResp.StatusCode)
	}
	var poll models.PollView
	decodeBody(t, voteResp, &poll)
	if len(poll.Candidates) == 0 {
		t.Fatal("poll has no candidates")
	}

	// the poll deadline is an hour out, so the room is still voting and a
	// result submission must be refused
	subResp := s.post(t, "/api/rooms/open/1/submit",
		`{"player_id":"p1","lines":"p1 [US] 10,0,0,0,0\np2 [JP] 5,0,0,0,0"}`)
	defer subResp.Body.Close()
	if subResp.StatusCode != http.StatusBadRequest {
		t.Errorf("submit during voting = %d, want 400", subResp.StatusCode)
	}
}

func TestLeaveEndpoint(t *testing.T) {
	s := newTestStack(t)
	s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`).Body.Close()

	resp := s.post(t, "/api/rooms/leave", `{"player_id":"p1"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	again := s.post(t, "/api/rooms/leave", `{"player_id":"p1"}`)
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("second leave = %d, want 404", again.StatusCode)
	}
}

func TestListRoomsEndpoint(t *testing.T) {
	s := newTestStack(t)
	s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`).Body.Close()

	resp := s.get(t, "/api/rooms?category=open")
	var list handlers.RoomListResponse
	decodeBody(t, resp, &list)
	if list.Category != "open" || len(list.Rooms) != 1 {
		t.Errorf("list = %+v, want one open room", list)
	}

	all := s.get(t, "/api/rooms")
	var lists []handlers.RoomListResponse
	decodeBody(t, all, &lists)
	if len(lists) != 1 || lists[0].Category != "open" {
		t.Errorf("lists = %+v, want the single open category", lists)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	s.repo.GetPlayer(ctx, "a")
	s.repo.SetRating(ctx, "a", 2100, models.TierDiamond)
	s.repo.GetPlayer(ctx, "b")
	s.repo.SetRating(ctx, "b", 900, models.TierBronze)

	resp := s.get(t, "/api/leaderboard?limit=1")
	var board handlers.LeaderboardResponse
	decodeBody(t, resp, &board)
	if len(board.Players) != 1 || board.Players[0].UserID != "a" {
		t.Errorf("players = %+v, want just the top-rated a", board.Players)
	}

	bad := s.get(t, "/api/leaderboard?limit=zero")
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", bad.StatusCode)
	}
}

func TestRankColorsEndpoint(t *testing.T) {
	s := newTestStack(t)

	resp := s.get(t, "/api/rank-colors")
	var colors map[string]string
	decodeBody(t, resp, &colors)
	if colors[models.TierGold] != "#f1c40f" {
		t.Errorf("gold color = %s, want #f1c40f", colors[models.TierGold])
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestStack(t)

	resp := s.get(t, "/api/catalog")
	var status handlers.CatalogStatusResponse
	decodeBody(t, resp, &status)
	if status.Songs != 3 {
		t.Errorf("songs = %d, want 3", status.Songs)
	}

	s.feed.SetError(errors.New("feed down"))
	refresh := s.post(t, "/api/catalog/refresh", "")
	if refresh.StatusCode != http.StatusBadGateway {
		t.Fatalf("refresh with dead feed = %d, want 502", refresh.StatusCode)
	}
	if code := errorCode(t, refresh); code != handlers.ErrCodeFeedUnavailable {
		t.Errorf("code = %s, want %s", code, handlers.ErrCodeFeedUnavailable)
	}
}

func TestActivityEndpoint(t *testing.T) {
	s := newTestStack(t)

	ok := s.post(t, "/api/activity", `{"player_id":"p1"}`)
	defer ok.Body.Close()
	if ok.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", ok.StatusCode)
	}

	missing := s.post(t, "/api/activity", `{}`)
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Errorf("missing player = %d, want 400", missing.StatusCode)
	}
}

func TestJoinLinkAndQR(t *testing.T) {
	s := newTestStack(t)

	resp := s.post(t, "/api/rooms/join", `{"player_id":"p1","category":"open"}`)
	var view models.RoomView
	decodeBody(t, resp, &view)
	if view.ExternalID == "" {
		t.Fatal("room has no external id")
	}

	link := s.get(t, "/join/"+view.ExternalID)
	var linked models.RoomView
	decodeBody(t, link, &linked)
	if linked.ID != view.ID {
		t.Errorf("join link resolved room %d, want %d", linked.ID, view.ID)
	}

	qr := s.get(t, "/join/"+view.ExternalID+"/qr")
	defer qr.Body.Close()
	if qr.StatusCode != http.StatusOK {
		t.Fatalf("qr status = %d, want 200", qr.StatusCode)
	}
	if ct := qr.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("qr content type = %s, want image/png", ct)
	}
	png, _ := io.ReadAll(qr.Body)
	if len(png) == 0 {
		t.Error("qr body is empty")
	}

	gone := s.get(t, "/join/not-a-room/qr")
	defer gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("unknown room qr = %d, want 404", gone.StatusCode)
	}
}
