// Package store persists per-user session records.
//
// Two backends are provided: a JSON document on disk (the default) and
// a SQLite database. Both hold the full record set in memory; Save
// flushes it durably and is expected after every record mutation.
package store

import (
	"github.com/rs/zerolog"

	"github.com/mataroa-tools/matabot/internal/model"
)

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}

// Store is the durable session state backend.
type Store interface {
	// Load reads the persisted state into memory. A missing or
	// unreadable backing file yields an empty store, not an error.
	Load() error
	// Save flushes the in-memory state durably.
	Save() error

	Get(id model.UserID) (*model.UserRecord, bool)
	Put(id model.UserID, rec *model.UserRecord)
	Delete(id model.UserID)
	All() map[model.UserID]*model.UserRecord

	// AllowlistIDs returns the allow-list ids persisted alongside the
	// user records.
	AllowlistIDs() []int64
	SetAllowlistIDs(ids []int64)
}
