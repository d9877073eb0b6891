package storetest

import (
	"context"
	"strconv"
	"sync"

	"github.com/netobjects/netstore/client"
	"github.com/netobjects/netstore/model"
)

// FakeClient is an in-memory client.Client for store unit tests. It
// counts calls per operation and can be scripted to fail.
type FakeClient struct {
	mu      sync.Mutex
	objects map[string]map[string]model.Snapshot
	nextID  int
	calls   map[string]int
	errs    map[string]error
}

// NewFakeClient creates an empty fake client.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		objects: make(map[string]map[string]model.Snapshot),
		calls:   make(map[string]int),
		errs:    make(map[string]error),
	}
}

// Seed inserts an object directly, bypassing call counting.
func (f *FakeClient) Seed(entity, id string, values map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucket(entity)[id] = model.NewSnapshot(values)
}

// FailWith scripts the named operation ("create", "get", "list", "count",
// "update", "delete") to return err until cleared with a nil err.
func (f *FakeClient) FailWith(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, operation)
		return
	}
	f.errs[operation] = err
}

// Calls returns how often the named operation was invoked.
func (f *FakeClient) Calls(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

// TotalCalls returns the number of invocations across all operations.
func (f *FakeClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Object returns the stored snapshot for direct assertions.
func (f *FakeClient) Object(entity, id string) (model.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.bucket(entity)[id]
	if !ok {
		return model.Snapshot{}, false
	}
	return snap.Clone(), true
}

// Create implements client.Client.
func (f *FakeClient) Create(_ context.Context, entity model.EntityDescription, values model.Snapshot) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if err := f.errs["create"]; err != nil {
		return model.Record{}, err
	}
	f.nextID++
	id := strconv.Itoa(f.nextID)
	snap := values.Clone()
	snap.Version = 1
	f.bucket(entity.Name)[id] = snap
	return model.Record{ID: model.NewObjectID(entity.Name, id), Snapshot: snap.Clone()}, nil
}

// Get implements client.Client.
func (f *FakeClient) Get(_ context.Context, entity model.EntityDescription, id string) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	if err := f.errs["get"]; err != nil {
		return model.Snapshot{}, err
	}
	snap, ok := f.bucket(entity.Name)[id]
	if !ok {
		return model.Snapshot{}, notFound()
	}
	return snap.Clone(), nil
}

// List implements client.Client.
func (f *FakeClient) List(_ context.Context, q client.Query) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if err := f.errs["list"]; err != nil {
		return nil, err
	}
	records := f.matchLocked(q)
	model.SortRecords(records, q.Sort)
	return model.ClampRecords(records, q.Offset, q.Limit), nil
}

// Count implements client.Client.
func (f *FakeClient) Count(_ context.Context, q client.Query) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["count"]++
	if err := f.errs["count"]; err != nil {
		return 0, err
	}
	return len(f.matchLocked(q)), nil
}

// Update implements client.Client.
func (f *FakeClient) Update(_ context.Context, entity model.EntityDescription, id string, changes model.Snapshot) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if err := f.errs["update"]; err != nil {
		return model.Snapshot{}, err
	}
	current, ok := f.bucket(entity.Name)[id]
	if !ok {
		return model.Snapshot{}, notFound()
	}
	merged := current.Merge(changes)
	merged.Version = current.Version + 1
	f.bucket(entity.Name)[id] = merged
	return merged.Clone(), nil
}

// Delete implements client.Client.
func (f *FakeClient) Delete(_ context.Context, entity model.EntityDescription, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if err := f.errs["delete"]; err != nil {
		return err
	}
	if _, ok := f.bucket(entity.Name)[id]; !ok {
		return notFound()
	}
	delete(f.bucket(entity.Name), id)
	return nil
}

// IsAvailable implements client.Client.
func (f *FakeClient) IsAvailable(_ context.Context) bool { return true }

// matchLocked evaluates the predicate against snapshots with the id
// attribute injected, the way a server-side object carries its id.
func (f *FakeClient) matchLocked(q client.Query) []model.Record {
	var records []model.Record
	for id, snap := range f.bucket(q.Entity.Name) {
		probe := snap.Clone()
		if probe.Values == nil {
			probe.Values = make(map[string]any, 1)
		}
		probe.Values[model.IDAttribute] = id
		if !q.Predicate.Matches(probe) {
			continue
		}
		records = append(records, model.Record{
			ID:       model.NewObjectID(q.Entity.Name, id),
			Snapshot: snap.Clone(),
		})
	}
	return records
}

func (f *FakeClient) bucket(entity string) map[string]model.Snapshot {
	b, ok := f.objects[entity]
	if !ok {
		b = make(map[string]model.Snapshot)
		f.objects[entity] = b
	}
	return b
}

func notFound() *client.Error {
	return client.ClassifyStatusCode(404, nil)
}

// Conflict returns the conflict error a server sends for a stale write.
func Conflict() *client.Error {
	return client.ClassifyStatusCode(409, nil)
}

// ServerError returns a retryable 5xx classified error.
func ServerError() *client.Error {
	return client.ClassifyStatusCode(503, nil)
}

// compile-time interface check
var _ client.Client = (*FakeClient)(nil)
