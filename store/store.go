// Package store persists user profiles collected during onboarding.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Profile is what the bot knows about one Telegram user.
type Profile struct {
	TelegramID int64
	Username   string
	Name       string // answer to "¿quién eres?"
	Role       string // answer to "¿cuál es tu función?"
	CreatedAt  time.Time
}

// Complete reports whether onboarding finished for this user.
func (p *Profile) Complete() bool {
	return p != nil && p.Name != "" && p.Role != ""
}

// ProfileStore is the persistence contract consumed by the bot.
type ProfileStore interface {
	Get(ctx context.Context, telegramID int64) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	Close() error
}

// SQLiteStore is a SQLite-backed ProfileStore.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (and migrates) the profile database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_profiles (
		telegram_id INTEGER PRIMARY KEY,
		username    TEXT,
		name        TEXT,
		role        TEXT,
		created_at  TIMESTAMP NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored profile, or nil when the user is unknown.
func (s *SQLiteStore) Get(ctx context.Context, telegramID int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT telegram_id, username, name, role, created_at
		 FROM user_profiles WHERE telegram_id = ?`, telegramID)

	p := &Profile{}
	err := row.Scan(&p.TelegramID, &p.Username, &p.Name, &p.Role, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Save upserts the profile keyed by telegram ID.
func (s *SQLiteStore) Save(ctx context.Context, p *Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (telegram_id, username, name, role, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(telegram_id) DO UPDATE SET
		   username = excluded.username,
		   name     = excluded.name,
		   role     = excluded.role`,
		p.TelegramID, p.Username, p.Name, p.Role, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
