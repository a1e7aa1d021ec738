// Package store is the Postgres persistence layer: one append-only table
// per versioned entity type plus the branch/session/edit-start bookkeeping
// tables the resolver and merge flow walk.
package store

import (
	"context"
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
