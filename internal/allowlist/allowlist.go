// Package allowlist gates access to the bot by chat user identity.
//
// The effective allow-list is the union of ids from the environment
// and ids from the persisted users document. An empty union admits
// everyone, which the caller should log loudly at startup.
package allowlist

import (
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/mataroa-tools/matabot/internal/model"
)

var splitRe = regexp.MustCompile(`[,\s]+`)

// ParseIDs extracts numeric user ids from a comma/whitespace separated
// string, ignoring anything non-numeric.
func ParseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range splitRe.Split(raw, -1) {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// FromEnv reads the allow-list ids from ALLOWLIST_IDS, falling back to
// ALLOWLIST.
func FromEnv() []int64 {
	raw := os.Getenv("ALLOWLIST_IDS")
	if raw == "" {
		raw = os.Getenv("ALLOWLIST")
	}
	return ParseIDs(raw)
}

// List is the effective allow-list.
type List struct {
	mu   sync.RWMutex
	env  map[int64]struct{}
	file map[int64]struct{}
}

func New(envIDs, fileIDs []int64) *List {
	l := &List{
		env:  make(map[int64]struct{}),
		file: make(map[int64]struct{}),
	}
	for _, id := range envIDs {
		l.env[id] = struct{}{}
	}
	for _, id := range fileIDs {
		l.file[id] = struct{}{}
	}
	return l
}

// SetFileIDs replaces the file-sourced portion of the allow-list,
// e.g. after reloading the users document.
func (l *List) SetFileIDs(ids []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.file = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		l.file[id] = struct{}{}
	}
}

// Empty reports whether no ids are configured at all.
func (l *List) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.env) == 0 && len(l.file) == 0
}

// Allowed reports whether the user may interact with the bot. An
// empty allow-list admits everyone.
func (l *List) Allowed(id model.UserID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.env) == 0 && len(l.file) == 0 {
		return true
	}
	if _, ok := l.env[int64(id)]; ok {
		return true
	}
	_, ok := l.file[int64(id)]
	return ok
}
