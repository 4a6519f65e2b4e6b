package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLStore is a SQLite-backed PendingStore: a single-file database in WAL
// mode, auto-migrated on construction, so pending requests survive a
// process restart.
//
// Type parameter S must be JSON-serializable.
type SQLStore[S any] struct {
	*sqlPendingStore[S]
}

// NewSQLStore opens (creating if absent) a SQLite database at path and
// migrates the HITL tables into it. Pass ":memory:" for an ephemeral store.
func NewSQLStore[S any](path string) (*SQLStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite allows exactly one writer

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("store: enabling WAL mode: %w", err)
	}

	base, err := newSQLPendingStore[S](db, sharedDDLSQLite)
	if err != nil {
		return nil, err
	}
	return &SQLStore[S]{sqlPendingStore: base}, nil
}
