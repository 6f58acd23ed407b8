package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mataroa-tools/matabot/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS allowlist (
	id INTEGER PRIMARY KEY
);
`

// SQLiteStore persists records in a SQLite database. Like FileStore it
// serves reads from memory; Save rewrites the tables in one
// transaction.
type SQLiteStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	users     map[model.UserID]*model.UserRecord
	allowlist []int64
}

func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	path := filepath.Join(dir, "users.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{
		db:    db,
		users: make(map[model.UserID]*model.UserRecord),
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[model.UserID]*model.UserRecord)
	s.allowlist = nil

	rows, err := s.db.Query(`SELECT id, record FROM users`)
	if err != nil {
		return fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("failed to scan user row: %w", err)
		}
		var rec model.UserRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			storeLogger.Warn().Err(err).Int64("user_id", id).Msg("Skipping undecodable user row")
			continue
		}
		rec.Settings.Normalize()
		s.users[model.UserID(id)] = &rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read users: %w", err)
	}

	arows, err := s.db.Query(`SELECT id FROM allowlist ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to query allowlist: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var id int64
		if err := arows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan allowlist row: %w", err)
		}
		s.allowlist = append(s.allowlist, id)
	}
	return arows.Err()
}

func (s *SQLiteStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	now := time.Now().UTC()
	for id, rec := range s.users {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record for user %d: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO users (id, record, updated_at) VALUES (?, ?, ?)`,
			int64(id), string(raw), now); err != nil {
			return fmt.Errorf("failed to write user %d: %w", id, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM allowlist`); err != nil {
		return fmt.Errorf("failed to clear allowlist: %w", err)
	}
	for _, id := range s.allowlist {
		if _, err := tx.Exec(`INSERT INTO allowlist (id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to write allowlist id %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Get(id model.UserID) (*model.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	return rec, ok
}

func (s *SQLiteStore) Put(id model.UserID, rec *model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = rec
}

func (s *SQLiteStore) Delete(id model.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *SQLiteStore) All() map[model.UserID]*model.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.UserID]*model.UserRecord, len(s.users))
	for id, rec := range s.users {
		out[id] = rec
	}
	return out
}

func (s *SQLiteStore) AllowlistIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.allowlist))
	copy(out, s.allowlist)
	return out
}

func (s *SQLiteStore) SetAllowlistIDs(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowlist = ids
}
