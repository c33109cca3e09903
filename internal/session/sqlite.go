package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
)

// Event kinds recorded in the local audit trail.
const (
	EventLogin   = "login"
	EventRefresh = "refresh"
	EventLogout  = "logout"
	EventExpired = "expired"
	EventFailure = "failure"
)

// Event is one row of auth_events. Detail never contains credentials.
type Event struct {
	ID        string
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// EventRecorder receives session transitions.
type EventRecorder interface {
	RecordEvent(kind, detail string) error
}

// SQLiteStorage implements [Storage] over the profile_store table.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens (or creates) the profile database at path and runs migrations.
func OpenSQLiteStorage(path string, maxOpen, maxIdle int) (*SQLiteStorage, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, maxOpen, maxIdle)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewSQLiteStorage(db), nil
}

// NewSQLiteStorage wraps an already migrated database.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Get reads the value stored under key.
func (s *SQLiteStorage) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM profile_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

// Set upserts key in a single statement.
func (s *SQLiteStorage) Set(key, value string) error {
	query := `
		INSERT INTO profile_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStorage) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM profile_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// RecordEvent appends to auth_events.
func (s *SQLiteStorage) RecordEvent(kind, detail string) error {
	_, err := s.db.Exec(
		"INSERT INTO auth_events (id, kind, detail, created_at) VALUES (?, ?, ?, ?)",
		shared.GenerateID(), kind, detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", kind, err)
	}
	return nil
}

// Events returns the most recent events, newest first.
func (s *SQLiteStorage) Events(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT id, kind, detail, created_at FROM auth_events ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
