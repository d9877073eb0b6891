// Package sqlite provides a SQLite-backed snapshot cache. It implements the
// same interface as the in-memory cache but survives process restarts,
// which lets a redeployed adapter start with a warm cache instead of
// refetching every object.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/netobjects/netstore/cache"
	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	entity     TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (entity, id)
);
`

// Store persists object snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite snapshot cache at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite cache: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap sqlite cache schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the cached snapshot for the identifier.
func (s *Store) Get(ctx context.Context, id model.ObjectID) (model.Snapshot, bool, error) {
	var payload string
	var version int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload, version FROM snapshots WHERE entity = ? AND id = ?`,
		id.Entity, id.ID,
	).Scan(&payload, &version)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("sqlite cache get %s: %w", id, err)
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(payload), &values); err != nil || values == nil {
		// Undecodable row: drop it and report corruption so the caller
		// falls back to a remote fetch.
		_, _ = s.sqlDB.ExecContext(ctx,
			`DELETE FROM snapshots WHERE entity = ? AND id = ?`, id.Entity, id.ID)
		return model.Snapshot{}, false, errors.CacheCorruption(id.String(), "payload is not a JSON object")
	}
	return model.Snapshot{Values: values, Version: version}, true, nil
}

// Put inserts or overwrites the snapshot for the identifier.
func (s *Store) Put(ctx context.Context, id model.ObjectID, snap model.Snapshot) error {
	payload, err := json.Marshal(snap.Values)
	if err != nil {
		return fmt.Errorf("sqlite cache encode %s: %w", id, err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO snapshots (entity, id, payload, version, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (entity, id) DO UPDATE SET
		   payload = excluded.payload,
		   version = excluded.version,
		   updated_at = excluded.updated_at`,
		id.Entity, id.ID, string(payload), snap.Version, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite cache put %s: %w", id, err)
	}
	return nil
}

// Delete removes the entry for the identifier.
func (s *Store) Delete(ctx context.Context, id model.ObjectID) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM snapshots WHERE entity = ? AND id = ?`, id.Entity, id.ID)
	if err != nil {
		return fmt.Errorf("sqlite cache delete %s: %w", id, err)
	}
	return nil
}

// InvalidateEntity removes every entry of the named entity.
func (s *Store) InvalidateEntity(ctx context.Context, entity string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM snapshots WHERE entity = ?`, entity)
	if err != nil {
		return fmt.Errorf("sqlite cache invalidate %s: %w", entity, err)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM snapshots`)
	if err != nil {
		return fmt.Errorf("sqlite cache clear: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite cache len: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ cache.Cache = (*Store)(nil)
