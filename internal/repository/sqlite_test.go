package repository_test

import (
	"context"
	"testing"

	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
)

func newRepo(t *testing.T) *repository.Repository {
	t.Helper()
	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetPlayerUpsertsDefault(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p, err := repo.GetPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.MMR != 0 || p.Tier != models.TierPlacement {
		t.Errorf("fresh player = %d/%s, want 0/Placement", p.MMR, p.Tier)
	}

	// second read must hit the stored row, not re-insert
	n, err := repo.CountPlayers(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("CountPlayers = %d, want 1", n)
	}
	if _, err := repo.GetPlayer(ctx, "alice"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if n, _ = repo.CountPlayers(ctx); n != 1 {
		t.Errorf("CountPlayers after second get = %d, want 1", n)
	}
}

func TestSetRating(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if _, err := repo.GetPlayer(ctx, "alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.SetRating(ctx, "alice", 1234, models.TierGold); err != nil {
		t.Fatalf("set: %v", err)
	}

	p, _ := repo.GetPlayer(ctx, "alice")
	if p.MMR != 1234 || p.Tier != models.TierGold {
		t.Errorf("player = %d/%s, want 1234/Gold", p.MMR, p.Tier)
	}

	if err := repo.SetRating(ctx, "nobody", 100, models.TierBronze); err != repository.ErrNotFound {
		t.Errorf("unknown player = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	// creates the row on the fly
	if err := repo.UpdateProfile(ctx, "bob", "Bobby", "JP"); err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ := repo.GetPlayer(ctx, "bob")
	if p.DisplayName != "Bobby" || p.Country != "JP" {
		t.Errorf("profile = %s/%s, want Bobby/JP", p.DisplayName, p.Country)
	}
}

func TestTopPlayersOrderAndLimit(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ratings := map[string]int{"a": 100, "b": 300, "c": 200}
	for id, mmr := range ratings {
		repo.GetPlayer(ctx, id)
		if err := repo.SetRating(ctx, id, mmr, models.TierBronze); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	top, err := repo.TopPlayers(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d players, want 2", len(top))
	}
	if top[0].UserID != "b" || top[1].UserID != "c" {
		t.Errorf("order = %s, %s; want b, c", top[0].UserID, top[1].UserID)
	}
}

func TestReplaceSongsSwapsWholesale(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := []models.Song{
		{ID: 1, Title: "Alpha", Difficulty: "master", Level: 30},
		{ID: 2, Title: "Beta", Difficulty: "expert", Level: 28},
	}
	if err := repo.ReplaceSongs(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := []models.Song{
		{ID: 3, Title: "Gamma", Difficulty: "append", Level: 31},
	}
	if err := repo.ReplaceSongs(ctx, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	songs, err := repo.ListSongs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != 3 {
		t.Errorf("songs = %+v, want only Gamma", songs)
	}
}

func TestListSongsOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceSongs(ctx, []models.Song{
		{ID: 1, Title: "Zed", Difficulty: "master", Level: 28},
		{ID: 2, Title: "Apple", Difficulty: "master", Level: 31},
		{ID: 3, Title: "Mango", Difficulty: "master", Level: 31},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	songs, _ := repo.ListSongs(ctx)
	if songs[0].Title != "Apple" || songs[1].Title != "Mango" || songs[2].Title != "Zed" {
		t.Errorf("order = %s, %s, %s; want level desc then title", songs[0].Title, songs[1].Title, songs[2].Title)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	v, err := repo.GetSetting(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if v != "" {
		t.Errorf("missing setting = %q, want empty", v)
	}

	if err := repo.SetSetting(ctx, "base_url", "https://a.example"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetSetting(ctx, "base_url", "https://b.example"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, _ = repo.GetSetting(ctx, "base_url")
	if v != "https://b.example" {
		t.Errorf("setting = %q, want the overwritten value", v)
	}
}
