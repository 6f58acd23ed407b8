package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mataroa-tools/matabot/internal/model"
)

// document is the on-disk shape of the users file.
type document struct {
	Users     map[string]json.RawMessage `json:"users"`
	Allowlist []int64                    `json:"allowlist,omitempty"`
}

// FileStore keeps all records in a single JSON document, written
// atomically via a temp file rename. The containing directory is
// created with owner-only permissions since the file holds API keys.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	users     map[model.UserID]*model.UserRecord
	allowlist []int64
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{
		path:  filepath.Join(dir, "users.json"),
		users: make(map[model.UserID]*model.UserRecord),
	}
}

func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[model.UserID]*model.UserRecord)
	s.allowlist = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		storeLogger.Warn().Err(err).Str("path", s.path).Msg("Could not read users file, starting empty")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Very old files were a bare uid -> record map without the
		// wrapper document.
		var bare map[string]json.RawMessage
		if err2 := json.Unmarshal(data, &bare); err2 != nil {
			storeLogger.Warn().Err(err).Str("path", s.path).Msg("Corrupt users file, starting empty")
			return nil
		}
		doc.Users = bare
	}

	for key, raw := range doc.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			storeLogger.Warn().Str("key", key).Msg("Skipping non-numeric user id in users file")
			continue
		}
		rec := decodeRecord(raw)
		if rec == nil {
			storeLogger.Warn().Str("key", key).Msg("Skipping undecodable user entry")
			continue
		}
		rec.Settings.Normalize()
		s.users[model.UserID(id)] = rec
	}
	s.allowlist = doc.Allowlist
	return nil
}

// decodeRecord accepts both the structured record and the legacy form
// where the value was just the API key string.
func decodeRecord(raw json.RawMessage) *model.UserRecord {
	var rec model.UserRecord
	if err := json.Unmarshal(raw, &rec); err == nil && rec.APIKey != "" {
		return &rec
	}
	var key string
	if err := json.Unmarshal(raw, &key); err == nil && key != "" {
		return model.NewUserRecord(key)
	}
	return nil
}

func (s *FileStore) Save() error {
	s.mu.RLock()
	doc := document{
		Users:     make(map[string]json.RawMessage, len(s.users)),
		Allowlist: s.allowlist,
	}
	for id, rec := range s.users {
		raw, err := json.Marshal(rec)
		if err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("failed to encode record for user %d: %w", id, err)
		}
		doc.Users[strconv.FormatInt(int64(id), 10)] = raw
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace users file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(id model.UserID) (*model.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	return rec, ok
}

func (s *FileStore) Put(id model.UserID, rec *model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = rec
}

func (s *FileStore) Delete(id model.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *FileStore) All() map[model.UserID]*model.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.UserID]*model.UserRecord, len(s.users))
	for id, rec := range s.users {
		out[id] = rec
	}
	return out
}

func (s *FileStore) AllowlistIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.allowlist))
	copy(out, s.allowlist)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *FileStore) SetAllowlistIDs(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowlist = ids
}
