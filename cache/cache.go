package cache

import (
	"context"

	"github.com/netobjects/netstore/model"
)

// Cache stores object snapshots keyed by object identifier.
//
// Get returns (snapshot, true, nil) on a hit and (zero, false, nil) on a
// miss. A corrupt entry yields (zero, false, err) with an
// errors.ErrCodeCacheCorruption error; callers treat it as a miss.
type Cache interface {
	// Get returns the cached snapshot for the identifier.
	Get(ctx context.Context, id model.ObjectID) (model.Snapshot, bool, error)

	// Put inserts or overwrites the snapshot for the identifier.
	Put(ctx context.Context, id model.ObjectID, snap model.Snapshot) error

	// Delete removes the entry for the identifier. Missing entries are not
	// an error.
	Delete(ctx context.Context, id model.ObjectID) error

	// InvalidateEntity removes every entry of the named entity.
	InvalidateEntity(ctx context.Context, entity string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Len returns the number of cached entries.
	Len(ctx context.Context) (int, error)
}

// entryKey builds the flat cache key for an object identifier.
func entryKey(id model.ObjectID) string {
	return id.Entity + ":" + id.ID
}
