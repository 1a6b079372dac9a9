package query

import (
	"math"
	"slices"
	"testing"
)

func TestSchemaAllOrNothing(t *testing.T) {
	s := Compile(
		Field{Name: "name", Type: TypeString},
		Field{Name: "age", Type: TypeNumber},
	)
	if got := s.Parse("name=alice"); got != nil {
		t.Errorf("expected nil when age is missing, got %v", got)
	}
	if got := s.Parse("name=alice&age=old"); got != nil {
		t.Errorf("expected nil when age is not a number, got %v", got)
	}
	if got := s.Parse("age=3"); got != nil {
		t.Errorf("expected nil when name is missing, got %v", got)
	}

	v := s.Parse("age=31&name=alice")
	if v == nil {
		t.Fatal("expected values")
	}
	if v.String("name") != "alice" {
		t.Errorf("expected alice, got %q", v.String("name"))
	}
	if v.Number("age") != 31 {
		t.Errorf("expected 31, got %v", v.Number("age"))
	}
}

func TestSchemaOptionalFields(t *testing.T) {
	s := Compile(
		Field{Name: "q"},
		Field{Name: "debug", Type: TypeBool},
		Field{Name: "tag", MaxItems: 3},
		Field{Name: "id", Type: TypeNumber, MaxItems: 2},
		Field{Name: "ignored", MaxItems: -1},
	)
	v := s.Parse("q=go&tag=a&tag=b&id=1&id=x&id=2&id=3&ignored=1")
	if v == nil {
		t.Fatal("expected values")
	}
	if v.Bool("debug") {
		t.Error("expected debug to be false")
	}
	if !slices.Equal(v.Strings("tag"), []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", v.Strings("tag"))
	}
	if !slices.Equal(v.Numbers("id"), []float64{1, 2}) {
		t.Errorf("expected [1 2], got %v", v.Numbers("id"))
	}
	if val, ok := v["ignored"]; !ok || val != nil {
		t.Errorf("expected ignored to be present and nil, got %v, %v", val, ok)
	}
	if len(v) != 5 {
		t.Errorf("expected 5 fields, got %d", len(v))
	}

	v = s.Parse("q=x&debug")
	if !v.Bool("debug") {
		t.Error("expected debug to be true")
	}
	if tags := v.Strings("tag"); tags == nil || len(tags) != 0 {
		t.Errorf("expected empty tag slice, got %#v", tags)
	}
}

func TestValuesAccessors(t *testing.T) {
	var v Values
	if v.String("x") != "" || v.Bool("x") || v.Strings("x") != nil || v.Numbers("x") != nil {
		t.Error("expected zero values from nil Values")
	}
	if !math.IsNaN(v.Number("x")) {
		t.Error("expected NaN from nil Values")
	}
}

func TestSchemaFields(t *testing.T) {
	fields := []Field{{Name: "a"}, {Name: "b", Type: TypeBool}}
	s := Compile(fields...)
	fields[0].Name = "changed"
	if got := s.Fields(); got[0].Name != "a" || len(got) != 2 {
		t.Errorf("unexpected fields %v", got)
	}
}

func BenchmarkSchemaParse(b *testing.B) {
	s := Compile(
		Field{Name: "name"},
		Field{Name: "age", Type: TypeNumber},
		Field{Name: "tag", MaxItems: 4},
		Field{Name: "verbose", Type: TypeBool},
	)
	raw := "name=J%C3%B6rg&age=42&tag=a&tag=b&verbose"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if s.Parse(raw) == nil {
			b.Fatal("parse failed")
		}
	}
}
