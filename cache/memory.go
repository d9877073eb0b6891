package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/netobjects/netstore/errors"
	"github.com/netobjects/netstore/model"
)

// Memory is an in-process snapshot cache with an optional entry bound.
// When MaxEntries is exceeded the least recently used entry is evicted.
type Memory struct {
	// Get promotes entries in the recency list, so reads take the
	// exclusive lock too.
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type memoryEntry struct {
	key  string
	id   model.ObjectID
	snap model.Snapshot
}

// NewMemory creates an in-memory cache. maxEntries of 0 means unbounded;
// explicit invalidation is then the only way entries leave the cache.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Get returns the cached snapshot for the identifier.
func (m *Memory) Get(_ context.Context, id model.ObjectID) (model.Snapshot, bool, error) {
	key := entryKey(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return model.Snapshot{}, false, nil
	}
	entry, ok := elem.Value.(*memoryEntry)
	if !ok || entry == nil || entry.snap.Values == nil {
		// Damaged entry: drop it and report corruption so the caller
		// falls back to a remote fetch.
		m.order.Remove(elem)
		delete(m.entries, key)
		return model.Snapshot{}, false, errors.CacheCorruption(key, "entry holds no snapshot")
	}
	m.order.MoveToFront(elem)
	return entry.snap.Clone(), true, nil
}

// Put inserts or overwrites the snapshot for the identifier.
func (m *Memory) Put(_ context.Context, id model.ObjectID, snap model.Snapshot) error {
	key := entryKey(id)
	stored := snap.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		if entry, ok := elem.Value.(*memoryEntry); ok && entry != nil {
			entry.snap = stored
			m.order.MoveToFront(elem)
			return nil
		}
		m.order.Remove(elem)
		delete(m.entries, key)
	}

	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, id: id, snap: stored})
	m.evictLocked()
	return nil
}

// Delete removes the entry for the identifier.
func (m *Memory) Delete(_ context.Context, id model.ObjectID) error {
	key := entryKey(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.order.Remove(elem)
		delete(m.entries, key)
	}
	return nil
}

// InvalidateEntity removes every entry of the named entity.
func (m *Memory) InvalidateEntity(_ context.Context, entity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for elem := m.order.Front(); elem != nil; {
		next := elem.Next()
		if entry, ok := elem.Value.(*memoryEntry); ok && entry.id.Entity == entity {
			m.order.Remove(elem)
			delete(m.entries, entry.key)
		}
		elem = next
	}
	return nil
}

// Clear removes every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *Memory) evictLocked() {
	if m.maxEntries <= 0 {
		return
	}
	for len(m.entries) > m.maxEntries {
		oldest := m.order.Back()
		if oldest == nil {
			return
		}
		m.order.Remove(oldest)
		if entry, ok := oldest.Value.(*memoryEntry); ok {
			delete(m.entries, entry.key)
		}
	}
}

// compile-time interface check
var _ Cache = (*Memory)(nil)
