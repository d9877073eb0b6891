package model

import "testing"

func widgetSnapshot() Snapshot {
	return NewSnapshot(map[string]any{
		"id":    "42",
		"name":  "gear",
		"size":  float64(10),
		"tags":  []any{"steel", "round"},
		"ready": true,
	})
}

func TestPredicate_Matches_Nil(t *testing.T) {
	var p *Predicate
	if !p.Matches(widgetSnapshot()) {
		t.Error("nil predicate should match everything")
	}
}

func TestPredicate_Matches_Eq(t *testing.T) {
	if !Eq("name", "gear").Matches(widgetSnapshot()) {
		t.Error("expected name == gear to match")
	}
	if Eq("name", "cog").Matches(widgetSnapshot()) {
		t.Error("did not expect name == cog to match")
	}
}

func TestPredicate_Matches_NumericCoercion(t *testing.T) {
	// JSON decoding produces float64; callers often filter with ints.
	if !Eq("size", 10).Matches(widgetSnapshot()) {
		t.Error("expected int 10 to match float64 10")
	}
	if !Gt("size", 5).Matches(widgetSnapshot()) {
		t.Error("expected size > 5 to match")
	}
	if Gte("size", 11).Matches(widgetSnapshot()) {
		t.Error("did not expect size >= 11 to match")
	}
}

func TestPredicate_Matches_MissingAttribute(t *testing.T) {
	if Eq("color", "red").Matches(widgetSnapshot()) {
		t.Error("missing attribute should not match")
	}
	if Neq("color", "red").Matches(widgetSnapshot()) {
		t.Error("missing attribute should not match even for neq")
	}
}

func TestPredicate_Matches_Contains(t *testing.T) {
	if !Contains("name", "ear").Matches(widgetSnapshot()) {
		t.Error("expected substring match")
	}
	if !Contains("tags", "steel").Matches(widgetSnapshot()) {
		t.Error("expected slice membership match")
	}
	if Contains("tags", "plastic").Matches(widgetSnapshot()) {
		t.Error("did not expect plastic in tags")
	}
}

func TestPredicate_Matches_In(t *testing.T) {
	if !In("name", "cog", "gear").Matches(widgetSnapshot()) {
		t.Error("expected in-list match")
	}
	if In("name", "cog", "axle").Matches(widgetSnapshot()) {
		t.Error("did not expect match outside list")
	}
}

func TestPredicate_Matches_Composite(t *testing.T) {
	p := And(Eq("ready", true), Or(Eq("name", "gear"), Eq("name", "cog")))
	if !p.Matches(widgetSnapshot()) {
		t.Error("expected composite predicate to match")
	}
	if Not(p).Matches(widgetSnapshot()) {
		t.Error("negated composite should not match")
	}
}

func TestPredicate_IdentifierSet_Eq(t *testing.T) {
	ids, ok := Eq("id", "42").IdentifierSet()
	if !ok || len(ids) != 1 || ids[0] != "42" {
		t.Errorf("expected [42], got %v ok=%v", ids, ok)
	}
}

func TestPredicate_IdentifierSet_In(t *testing.T) {
	ids, ok := In("id", "1", "2", "3").IdentifierSet()
	if !ok || len(ids) != 3 {
		t.Errorf("expected 3 ids, got %v ok=%v", ids, ok)
	}
}

func TestPredicate_IdentifierSet_OrOfEq(t *testing.T) {
	ids, ok := Or(Eq("id", "1"), Eq("id", "2")).IdentifierSet()
	if !ok || len(ids) != 2 {
		t.Errorf("expected 2 ids, got %v ok=%v", ids, ok)
	}
}

func TestPredicate_IdentifierSet_NotPinned(t *testing.T) {
	cases := []*Predicate{
		nil,
		Eq("name", "gear"),
		Gt("id", "10"),
		And(Eq("id", "1"), Eq("name", "gear")),
		Not(Eq("id", "1")),
		Or(Eq("id", "1"), Eq("name", "gear")),
	}
	for i, p := range cases {
		if _, ok := p.IdentifierSet(); ok {
			t.Errorf("case %d: expected no identifier set", i)
		}
	}
}

func TestPredicate_Validate_Success(t *testing.T) {
	p := And(Eq("name", "gear"), In("id", "1", "2"))
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPredicate_Validate_EmptyIn(t *testing.T) {
	p := &Predicate{Attribute: "id", Operator: OpIn}
	if err := p.Validate(); err == nil {
		t.Error("expected error for empty in-list")
	}
}

func TestPredicate_Validate_UnknownOperator(t *testing.T) {
	p := &Predicate{Attribute: "id", Operator: "like"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestPredicate_Validate_MixedForms(t *testing.T) {
	p := &Predicate{Attribute: "id", Operator: OpEq, Value: "1", AllOf: []*Predicate{Eq("a", 1)}}
	if err := p.Validate(); err == nil {
		t.Error("expected error for mixed leaf and composite forms")
	}
}
