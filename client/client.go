package client

import (
	"context"

	"github.com/netobjects/netstore/model"
)

// Query is a translated fetch request the client executes remotely.
type Query struct {
	// Entity describes the entity kind to query.
	Entity model.EntityDescription
	// Predicate filters the result server-side. Nil matches everything.
	Predicate *model.Predicate
	// Sort orders the result server-side.
	Sort []model.SortDescriptor
	// Limit caps the number of returned objects. 0 means no limit.
	Limit int
	// Offset skips the first n ordered objects.
	Offset int
}

// Client is the remote API collaborator of the store adapter. The adapter
// holds a non-owning reference; implementations own their transport,
// credentials, timeout and retry policy.
type Client interface {
	// Create persists a new object and returns the full record with its
	// durable server-assigned identifier.
	Create(ctx context.Context, entity model.EntityDescription, values model.Snapshot) (model.Record, error)

	// Get fetches the snapshot for one identifier. A missing object yields
	// a not-found classified error.
	Get(ctx context.Context, entity model.EntityDescription, id string) (model.Snapshot, error)

	// List fetches all records matching the query.
	List(ctx context.Context, q Query) ([]model.Record, error)

	// Count returns the number of objects matching the query.
	Count(ctx context.Context, q Query) (int, error)

	// Update applies changed attributes to one object and returns the
	// resulting full snapshot.
	Update(ctx context.Context, entity model.EntityDescription, id string, changes model.Snapshot) (model.Snapshot, error)

	// Delete removes one object. Deleting a missing object yields a
	// not-found classified error.
	Delete(ctx context.Context, entity model.EntityDescription, id string) error

	// IsAvailable reports whether the client is configured and ready.
	IsAvailable(ctx context.Context) bool
}
