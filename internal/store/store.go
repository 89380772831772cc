// Package store handles SQLite persistence of the session token and UI preferences.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	keyToken = "session.token"
	keyTheme = "ui.theme"
)

// Store wraps SQLite access for persisted client state.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writes serialized across concurrent commands.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Token returns the persisted session token, if any.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	return s.get(ctx, keyToken)
}

// SetToken replaces the persisted session token.
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, keyToken, token)
}

// ClearToken erases the persisted session token.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.delete(ctx, keyToken)
}

// Theme returns the persisted dashboard theme, if any.
func (s *Store) Theme(ctx context.Context) (string, bool, error) {
	return s.get(ctx, keyTheme)
}

// SetTheme persists the dashboard theme.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.set(ctx, keyTheme, theme)
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
