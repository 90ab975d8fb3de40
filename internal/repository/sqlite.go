package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/groovematch/groovematch/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an existing database handle, mainly for tests
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			display_name TEXT DEFAULT '',
			mmr INTEGER NOT NULL DEFAULT 0,
			tier TEXT NOT NULL DEFAULT 'Placement',
			country TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS songs (
			id INTEGER NOT NULL,
			title TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			level INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_mmr ON players(mmr)`,
		`CREATE INDEX IF NOT EXISTS idx_songs_level ON songs(level)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// GetPlayer returns a player's record, creating the default unrated row on
// first access so callers never see "no such player".
func (r *Repository) GetPlayer(ctx context.Context, userID string) (*models.Player, error) {
	p := &models.Player{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name, mmr, tier, country FROM players WHERE user_id = ?`, userID,
	).Scan(&p.DisplayName, &p.MMR, &p.Tier, &p.Country)
	if err == sql.ErrNoRows {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO players (user_id, mmr, tier) VALUES (?, 0, ?)`,
			userID, models.TierPlacement,
		); err != nil {
			return nil, err
		}
		p.MMR = 0
		p.Tier = models.TierPlacement
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetRating updates a player's MMR and tier
func (r *Repository) SetRating(ctx context.Context, userID string, mmr int, tier string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET mmr = ?, tier = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		mmr, tier, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile sets a player's display name and country, creating the
// default row first if needed
func (r *Repository) UpdateProfile(ctx context.Context, userID, displayName, country string) error {
	if _, err := r.GetPlayer(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET display_name = ?, country = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		displayName, country, userID,
	)
	return err
}

// TopPlayers returns the highest-rated players in descending MMR order
func (r *Repository) TopPlayers(ctx context.Context, limit int) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, display_name, mmr, tier, country FROM players ORDER BY mmr DESC, user_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.MMR, &p.Tier, &p.Country); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// CountPlayers returns the number of registered players
func (r *Repository) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}

// ReplaceSongs swaps the persisted catalog for a new one in a single
// transaction, so readers never see a half-written table.
func (r *Repository) ReplaceSongs(ctx context.Context, songs []models.Song) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM songs`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO songs (id, title, difficulty, level) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range songs {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Title, s.Difficulty, s.Level); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSongs returns the persisted catalog
func (r *Repository) ListSongs(ctx context.Context) ([]models.Song, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, difficulty, level FROM songs ORDER BY level DESC, title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Difficulty, &s.Level); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// GetSetting retrieves a setting value by key
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores a setting value by key
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
