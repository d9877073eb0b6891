package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ResultType selects the granularity of a fetch result.
type ResultType int

const (
	// ResultSnapshots returns full records (identifier plus snapshot).
	ResultSnapshots ResultType = iota
	// ResultObjectIDs returns lightweight object references (faults) whose
	// data the caller resolves lazily.
	ResultObjectIDs
	// ResultCount returns only the number of matching objects.
	ResultCount
)

// String returns the result type name.
func (t ResultType) String() string {
	switch t {
	case ResultSnapshots:
		return "snapshots"
	case ResultObjectIDs:
		return "object_ids"
	case ResultCount:
		return "count"
	default:
		return "unknown"
	}
}

// FetchRequest asks the store for objects of one entity kind.
type FetchRequest struct {
	// Entity describes the entity kind to fetch.
	Entity EntityDescription `validate:"required"`
	// Predicate filters the result. Nil matches every object.
	Predicate *Predicate
	// Sort orders the result.
	Sort []SortDescriptor
	// Limit caps the number of returned objects. 0 means no limit.
	Limit int `validate:"gte=0"`
	// Offset skips the first n ordered objects.
	Offset int `validate:"gte=0"`
	// ResultType selects snapshots, object references, or a count.
	ResultType ResultType
}

// Validate checks the request shape.
func (r *FetchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("fetch request: %w", err)
	}
	if r.Entity.Name == "" {
		return fmt.Errorf("fetch request: entity name is required")
	}
	if err := r.Predicate.Validate(); err != nil {
		return fmt.Errorf("fetch request: %w", err)
	}
	for _, d := range r.Sort {
		if d.Attribute == "" {
			return fmt.Errorf("fetch request: sort descriptor requires an attribute")
		}
	}
	return nil
}

// FetchResult is returned by the store for a fetch request. Exactly one of
// Records, ObjectIDs, or Count is meaningful, according to the request's
// ResultType.
type FetchResult struct {
	Records   []Record
	ObjectIDs []ObjectID
	Count     int
	// FromCache reports whether the result was served without a remote call.
	FromCache bool
}

// ChangedObject is one inserted or updated object in a save request. For
// inserts the snapshot carries the full attribute set and the ID is
// temporary; for updates the snapshot carries only the changed attributes.
type ChangedObject struct {
	ID       ObjectID
	Snapshot Snapshot
}

// SaveRequest asks the store to push a change set to the remote API.
type SaveRequest struct {
	Inserts []ChangedObject
	Updates []ChangedObject
	Deletes []ObjectID
}

// Validate checks the request shape.
func (r *SaveRequest) Validate() error {
	if len(r.Inserts) == 0 && len(r.Updates) == 0 && len(r.Deletes) == 0 {
		return fmt.Errorf("save request: empty change set")
	}
	for _, ins := range r.Inserts {
		if ins.ID.Entity == "" {
			return fmt.Errorf("save request: insert requires an entity name")
		}
		if !ins.ID.Temporary {
			return fmt.Errorf("save request: insert %s must carry a temporary identifier", ins.ID)
		}
	}
	for _, upd := range r.Updates {
		if upd.ID.IsZero() || upd.ID.Temporary {
			return fmt.Errorf("save request: update %s requires a permanent identifier", upd.ID)
		}
		if len(upd.Snapshot.Values) == 0 {
			return fmt.Errorf("save request: update %s carries no changed attributes", upd.ID)
		}
	}
	for _, del := range r.Deletes {
		if del.IsZero() || del.Temporary {
			return fmt.Errorf("save request: delete %s requires a permanent identifier", del)
		}
	}
	return nil
}

// IsEmpty reports whether the request carries no changes.
func (r *SaveRequest) IsEmpty() bool {
	return len(r.Inserts) == 0 && len(r.Updates) == 0 && len(r.Deletes) == 0
}

// IDAssignment maps a temporary insert identifier to the durable
// server-assigned one.
type IDAssignment struct {
	Temporary ObjectID
	Permanent ObjectID
}

// ObjectError records a per-object failure inside a batch save.
type ObjectError struct {
	ID  ObjectID
	Err error
}

// SaveResult is returned by the store for a save request. Assignments are
// in insert order. Failed carries per-object errors when the batch was
// applied best-effort.
type SaveResult struct {
	Assignments []IDAssignment
	Failed      []ObjectError
}
