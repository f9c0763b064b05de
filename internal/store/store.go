// Package store persists user settings and a journal of context requests.
// Enrichment results are never stored; each pipeline run fetches fresh.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite handle. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Settings are the user toggles sent with UPDATE_SETTINGS.
type Settings struct {
	EnableExtension  bool `json:"enableExtension"`
	ShowCompanyCards bool `json:"showCompanyCards"`
	ShowPersonCards  bool `json:"showPersonCards"`
	AutoDisplay      bool `json:"autoDisplay"`
}

// DefaultSettings has everything switched on.
func DefaultSettings() Settings {
	return Settings{
		EnableExtension:  true,
		ShowCompanyCards: true,
		ShowPersonCards:  true,
		AutoDisplay:      true,
	}
}

// RequestRecord is one journaled GET_CONTEXT request.
type RequestRecord struct {
	ID          string
	TextPrefix  string
	EntityCount int
	Fallback    bool
	Duration    time.Duration
	CreatedAt   time.Time
}

// journalPrefixLen caps how much of the input text is journaled.
const journalPrefixLen = 80

// Open opens or creates the database at dbPath. ":memory:" gives a
// shared in-memory database for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enable_extension INTEGER NOT NULL,
		show_company_cards INTEGER NOT NULL,
		show_person_cards INTEGER NOT NULL,
		auto_display INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		text_prefix TEXT NOT NULL,
		entity_count INTEGER NOT NULL,
		fallback INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSettings replaces the stored settings.
func (s *Store) SaveSettings(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO settings (id, enable_extension, show_company_cards, show_person_cards, auto_display, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enable_extension = excluded.enable_extension,
			show_company_cards = excluded.show_company_cards,
			show_person_cards = excluded.show_person_cards,
			auto_display = excluded.auto_display,
			updated_at = excluded.updated_at
	`, st.EnableExtension, st.ShowCompanyCards, st.ShowPersonCards, st.AutoDisplay, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadSettings returns the stored settings, or DefaultSettings if none
// were ever saved.
func (s *Store) LoadSettings() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Settings
	err := s.db.QueryRow(`
		SELECT enable_extension, show_company_cards, show_person_cards, auto_display
		FROM settings WHERE id = 1
	`).Scan(&st.EnableExtension, &st.ShowCompanyCards, &st.ShowPersonCards, &st.AutoDisplay)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// RecordRequest journals one request. The text is cut to 80 characters.
func (s *Store) RecordRequest(rec RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	prefix := []rune(rec.TextPrefix)
	if len(prefix) > journalPrefixLen {
		prefix = prefix[:journalPrefixLen]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO requests (id, text_prefix, entity_count, fallback, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, string(prefix), rec.EntityCount, rec.Fallback, rec.Duration.Milliseconds(), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// RecentRequests returns up to limit journal entries, newest first.
func (s *Store) RecentRequests(limit int) ([]RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, text_prefix, entity_count, fallback, duration_ms, created_at
		FROM requests
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var rec RequestRecord
		var durMs int64
		if err := rows.Scan(&rec.ID, &rec.TextPrefix, &rec.EntityCount, &rec.Fallback, &durMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		rec.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneRequests deletes journal entries older than before and returns the
// number removed.
func (s *Store) PruneRequests(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM requests WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune requests: %w", err)
	}
	return res.RowsAffected()
}
