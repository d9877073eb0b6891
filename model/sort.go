package model

import "sort"

// SortDescriptor orders fetch results by one attribute.
type SortDescriptor struct {
	Attribute  string `json:"attribute"`
	Descending bool   `json:"descending,omitempty"`
}

// Asc creates an ascending sort descriptor.
func Asc(attribute string) SortDescriptor {
	return SortDescriptor{Attribute: attribute}
}

// Desc creates a descending sort descriptor.
func Desc(attribute string) SortDescriptor {
	return SortDescriptor{Attribute: attribute, Descending: true}
}

// SortRecords orders records in place by the given descriptors, applied in
// order with a stable sort. Records whose attribute is missing or not
// comparable keep their relative position.
func SortRecords(records []Record, by []SortDescriptor) {
	if len(by) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, d := range by {
			a, aok := records[i].Snapshot.Get(d.Attribute)
			b, bok := records[j].Snapshot.Get(d.Attribute)
			if !aok || !bok {
				continue
			}
			cmp, comparable := compareValues(a, b)
			if !comparable || cmp == 0 {
				continue
			}
			if d.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// ClampRecords applies offset and limit to an ordered record slice.
// A limit of 0 means no limit.
func ClampRecords(records []Record, offset, limit int) []Record {
	if offset > 0 {
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
