package model

import (
	"fmt"
	"strings"
)

// Operator is a predicate comparison operator.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

// Predicate is a filter expression evaluable against a snapshot. A
// predicate is either a leaf comparison (Attribute, Operator, Value) or a
// composite (AllOf, AnyOf, Negate). Exactly one form should be populated.
type Predicate struct {
	Attribute string   `json:"attribute,omitempty"`
	Operator  Operator `json:"operator,omitempty"`
	Value     any      `json:"value,omitempty"`

	AllOf  []*Predicate `json:"all_of,omitempty"`
	AnyOf  []*Predicate `json:"any_of,omitempty"`
	Negate *Predicate   `json:"negate,omitempty"`
}

// Eq creates an equality comparison predicate.
func Eq(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpEq, Value: value}
}

// Neq creates an inequality comparison predicate.
func Neq(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpNeq, Value: value}
}

// Gt creates a greater-than comparison predicate.
func Gt(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpGt, Value: value}
}

// Gte creates a greater-than-or-equal comparison predicate.
func Gte(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpGte, Value: value}
}

// Lt creates a less-than comparison predicate.
func Lt(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpLt, Value: value}
}

// Lte creates a less-than-or-equal comparison predicate.
func Lte(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpLte, Value: value}
}

// Contains creates a substring/membership comparison predicate.
func Contains(attribute string, value any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpContains, Value: value}
}

// In creates a set-membership predicate. Values may be any slice type
// convertible to []any or []string.
func In(attribute string, values ...any) *Predicate {
	return &Predicate{Attribute: attribute, Operator: OpIn, Value: values}
}

// And combines predicates with logical AND.
func And(preds ...*Predicate) *Predicate {
	return &Predicate{AllOf: preds}
}

// Or combines predicates with logical OR.
func Or(preds ...*Predicate) *Predicate {
	return &Predicate{AnyOf: preds}
}

// Not negates a predicate.
func Not(pred *Predicate) *Predicate {
	return &Predicate{Negate: pred}
}

// Matches evaluates the predicate against the snapshot. A nil predicate
// matches everything.
func (p *Predicate) Matches(s Snapshot) bool {
	if p == nil {
		return true
	}
	switch {
	case len(p.AllOf) > 0:
		for _, sub := range p.AllOf {
			if !sub.Matches(s) {
				return false
			}
		}
		return true
	case len(p.AnyOf) > 0:
		for _, sub := range p.AnyOf {
			if sub.Matches(s) {
				return true
			}
		}
		return false
	case p.Negate != nil:
		return !p.Negate.Matches(s)
	}
	return p.matchesLeaf(s)
}

func (p *Predicate) matchesLeaf(s Snapshot) bool {
	actual, ok := s.Get(p.Attribute)
	if !ok {
		return false
	}
	switch p.Operator {
	case OpEq:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp == 0
	case OpNeq:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp != 0
	case OpGt:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp > 0
	case OpGte:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp >= 0
	case OpLt:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp < 0
	case OpLte:
		cmp, comparable := compareValues(actual, p.Value)
		return comparable && cmp <= 0
	case OpContains:
		return containsValue(actual, p.Value)
	case OpIn:
		for _, candidate := range asSlice(p.Value) {
			cmp, comparable := compareValues(actual, candidate)
			if comparable && cmp == 0 {
				return true
			}
		}
		return false
	}
	return false
}

// Validate checks that the predicate tree is well formed.
func (p *Predicate) Validate() error {
	if p == nil {
		return nil
	}
	forms := 0
	if len(p.AllOf) > 0 {
		forms++
	}
	if len(p.AnyOf) > 0 {
		forms++
	}
	if p.Negate != nil {
		forms++
	}
	if p.Attribute != "" || p.Operator != "" {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("predicate must be exactly one of: comparison, all_of, any_of, negate")
	}
	if p.Attribute != "" {
		switch p.Operator {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains:
		case OpIn:
			if len(asSlice(p.Value)) == 0 {
				return fmt.Errorf("predicate %q: in operator requires a non-empty value list", p.Attribute)
			}
		default:
			return fmt.Errorf("predicate %q: unknown operator %q", p.Attribute, p.Operator)
		}
	}
	for _, sub := range p.AllOf {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	for _, sub := range p.AnyOf {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	if p.Negate != nil {
		return p.Negate.Validate()
	}
	return nil
}

// IdentifierSet reports the exact remote identifiers the predicate pins,
// when it does. Only identifier equality, identifier membership, and
// disjunctions of those qualify; anything else returns (nil, false).
// The store uses this to decide whether a fetch can be answered from
// the cache alone.
func (p *Predicate) IdentifierSet() ([]string, bool) {
	if p == nil {
		return nil, false
	}
	switch {
	case len(p.AnyOf) > 0:
		var ids []string
		for _, sub := range p.AnyOf {
			subIDs, ok := sub.IdentifierSet()
			if !ok {
				return nil, false
			}
			ids = append(ids, subIDs...)
		}
		return ids, true
	case len(p.AllOf) > 0 || p.Negate != nil:
		return nil, false
	}
	if p.Attribute != IDAttribute {
		return nil, false
	}
	switch p.Operator {
	case OpEq:
		if id, ok := stringValue(p.Value); ok {
			return []string{id}, true
		}
	case OpIn:
		var ids []string
		for _, v := range asSlice(p.Value) {
			id, ok := stringValue(v)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			return ids, true
		}
	}
	return nil, false
}

// compareValues compares two attribute values. Numeric types are coerced
// to float64 so JSON-decoded numbers compare against native ints. Returns
// comparable=false for mixed or unordered types.
func compareValues(a, b any) (cmp int, comparable bool) {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	switch at := a.(type) {
	case string:
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(at, bs), true
	case bool:
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if at == bb {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func containsValue(actual, needle any) bool {
	switch at := actual.(type) {
	case string:
		ns, ok := needle.(string)
		return ok && strings.Contains(at, ns)
	case []any:
		for _, e := range at {
			cmp, comparable := compareValues(e, needle)
			if comparable && cmp == 0 {
				return true
			}
		}
	case []string:
		ns, ok := needle.(string)
		if !ok {
			return false
		}
		for _, e := range at {
			if e == ns {
				return true
			}
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func asSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
