package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/repository"
)

// Failure-path coverage that a live SQLite handle cannot produce.

func newMockRepo(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewWithDB(db), mock
}

func TestGetPlayerQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT display_name, mmr, tier, country FROM players").
		WithArgs("alice").
		WillReturnError(errors.New("database is locked"))

	if _, err := repo.GetPlayer(context.Background(), "alice"); err == nil {
		t.Error("expected the query error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetPlayerInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT display_name, mmr, tier, country FROM players").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"display_name", "mmr", "tier", "country"}))
	mock.ExpectExec("INSERT INTO players").
		WithArgs("alice", models.TierPlacement).
		WillReturnError(errors.New("readonly database"))

	if _, err := repo.GetPlayer(context.Background(), "alice"); err == nil {
		t.Error("expected the insert error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetRatingExecError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE players SET mmr").
		WithArgs(1500, models.TierGold, "alice").
		WillReturnError(errors.New("disk I/O error"))

	if err := repo.SetRating(context.Background(), "alice", 1500, models.TierGold); err == nil {
		t.Error("expected the exec error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceSongsRollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM songs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO songs").
		ExpectExec().
		WithArgs(1, "Alpha", "master", 30).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err := repo.ReplaceSongs(context.Background(), []models.Song{
		{ID: 1, Title: "Alpha", Difficulty: "master", Level: 30},
	})
	if err == nil {
		t.Error("expected the insert error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTopPlayersScanError(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"user_id", "display_name", "mmr", "tier", "country"}).
		AddRow("alice", "Alice", "not-a-number", models.TierGold, "US")
	mock.ExpectQuery("SELECT user_id, display_name, mmr, tier, country FROM players").
		WithArgs(10).
		WillReturnRows(rows)

	if _, err := repo.TopPlayers(context.Background(), 10); err == nil {
		t.Error("expected the scan error to surface")
	}
}
