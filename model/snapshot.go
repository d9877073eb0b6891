package model

import "reflect"

// Snapshot is a concrete set of attribute values for one object at one
// point in time, plus an optional version counter used for optimistic
// concurrency.
type Snapshot struct {
	Values  map[string]any `json:"values"`
	Version int64          `json:"version,omitempty"`
}

// NewSnapshot creates a snapshot from an attribute map. The map is copied.
func NewSnapshot(values map[string]any) Snapshot {
	return Snapshot{Values: copyValues(values)}
}

// Clone returns a deep copy of the snapshot. Nested maps and slices are
// copied so mutations of the clone never reach the original.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Values: copyValues(s.Values), Version: s.Version}
}

// Get returns the value of the named attribute.
func (s Snapshot) Get(attribute string) (any, bool) {
	v, ok := s.Values[attribute]
	return v, ok
}

// Equal reports whether two snapshots carry the same values and version.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Version == other.Version && reflect.DeepEqual(s.Values, other.Values)
}

// Merge returns a copy of the snapshot with the other snapshot's values
// layered on top. Used to apply a partial update onto a cached snapshot.
func (s Snapshot) Merge(other Snapshot) Snapshot {
	merged := s.Clone()
	if merged.Values == nil {
		merged.Values = make(map[string]any, len(other.Values))
	}
	for k, v := range other.Values {
		merged.Values[k] = copyValue(v)
	}
	if other.Version > merged.Version {
		merged.Version = other.Version
	}
	return merged
}

func copyValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyValues(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// Record pairs an object identifier with its snapshot. Fetch results and
// cache scans are expressed as records.
type Record struct {
	ID       ObjectID `json:"id"`
	Snapshot Snapshot `json:"snapshot"`
}
