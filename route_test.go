package spur

import (
	"net/http"
	"testing"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"users", "/users"},
		{"/users/", "/users"},
		{"//users//:id", "/users/:id"},
		{"/a/b", "/a/b"},
	}
	for _, tt := range tests {
		if got := cleanPath(tt.in); got != tt.want {
			t.Errorf("cleanPath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, p, want string
	}{
		{"/api", "/", "/api"},
		{"/", "/x", "/x"},
		{"", "/x", "/x"},
		{"/api", "/users", "/api/users"},
		{"/api/", "users/", "/api/users"},
		{"/", "/", "/"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.base, tt.p); got != tt.want {
			t.Errorf("joinPath(%q, %q): expected %q, got %q", tt.base, tt.p, tt.want, got)
		}
	}
}

func TestRouteClone(t *testing.T) {
	h := func(*Ctx) *Response { return nil }
	inner := Init(func(*Ctx) {})
	outer := Check(func(*Ctx) *Response { return nil })
	d1 := func(*Response, *Ctx) *Response { return nil }
	d2 := func(*Response, *Ctx) *Response { return nil }

	r := newRoute(http.MethodGet, "/items", h, nil, [][]Action{{inner}}, [][]DeferFunc{{d1}})
	c := r.clone("/v1", []Action{outer}, []DeferFunc{d2})

	if c.Path() != "/v1/items" || c.Method() != http.MethodGet {
		t.Errorf("unexpected clone %s", c)
	}
	if len(c.Actions()) != 2 || c.Actions()[0][0].Kind() != KindCheck || c.Actions()[1][0].Kind() != KindInit {
		t.Errorf("expected outer actions first, got %v", c.Actions())
	}
	if len(c.Defers()) != 2 {
		t.Errorf("expected two defer segments, got %d", len(c.Defers()))
	}
	if len(r.Actions()) != 1 || len(r.Defers()) != 1 || r.Path() != "/items" {
		t.Error("expected original route to be unchanged")
	}

	plain := r.clone("/", nil, nil)
	if plain.Path() != "/items" || len(plain.Actions()) != 1 {
		t.Errorf("unexpected plain clone %s", plain)
	}
}

func TestNewRouteNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil handler")
		}
	}()
	newRoute(http.MethodGet, "/", nil, nil, nil, nil)
}

func TestRouteString(t *testing.T) {
	r := newRoute(MethodAny, "/x", func(*Ctx) *Response { return nil }, nil, nil, nil)
	if r.String() != "ANY /x" {
		t.Errorf("expected 'ANY /x', got %q", r.String())
	}
}
