package spur

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"testing"
)

func testCtx(method, target string) *Ctx {
	c := newCtx()
	c.Reset(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
	return c
}

func TestCompilePassthrough(t *testing.T) {
	h := func(c *Ctx) *Response { return c.Text(200, "ok") }
	r := newRoute(http.MethodGet, "/", h, nil, [][]Action{{}}, [][]DeferFunc{nil})

	got := Compile(r)
	if reflect.ValueOf(got).Pointer() != reflect.ValueOf(h).Pointer() {
		t.Error("expected route without actions to compile to its handler")
	}
}

func TestCompileOrder(t *testing.T) {
	var trace []string
	step := func(name string) Action {
		return Init(func(*Ctx) { trace = append(trace, name) })
	}
	after := func(name string) DeferFunc {
		return func(res *Response, _ *Ctx) *Response {
			trace = append(trace, name)
			return nil
		}
	}
	h := func(c *Ctx) *Response {
		trace = append(trace, "handler")
		return c.Text(200, "ok")
	}

	r := newRoute(http.MethodGet, "/", h,
		[]Rule{Validate("v", func(*Ctx) (any, *Response) {
			trace = append(trace, "validator")
			return 1, nil
		})},
		[][]Action{{step("outer1"), step("outer2")}, {step("inner")}},
		[][]DeferFunc{{after("innerA"), after("innerB")}, {after("outer")}},
	)
	Compile(r)(testCtx("GET", "/"))

	want := []string{"outer1", "outer2", "inner", "validator", "handler", "innerB", "innerA", "outer"}
	if !slices.Equal(trace, want) {
		t.Errorf("expected %v, got %v", want, trace)
	}
}

func TestCompileActionsSeeEarlierWrites(t *testing.T) {
	n := NewKey[int]("n")
	var seen []int
	r := newRoute(http.MethodGet, "/", func(c *Ctx) *Response {
		seen = append(seen, n.Get(c))
		return nil
	}, nil, [][]Action{
		{Set(n, func(*Ctx) int { return 1 })},
		{
			Check(func(c *Ctx) *Response {
				seen = append(seen, n.Get(c))
				return nil
			}),
			Set(n, func(c *Ctx) int { return n.Get(c) + 1 }),
		},
	}, nil)
	Compile(r)(testCtx("GET", "/"))

	if !slices.Equal(seen, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", seen)
	}
}

func TestCompileShortCircuit(t *testing.T) {
	var ran, deferred int
	stop := Check(func(c *Ctx) *Response { return c.Forbidden("no") })
	count := Init(func(*Ctx) { ran++ })
	h := func(c *Ctx) *Response {
		ran++
		return c.Text(200, "ok")
	}
	d := func(res *Response, _ *Ctx) *Response {
		deferred++
		return nil
	}

	r := newRoute(http.MethodGet, "/", h, nil, [][]Action{{stop, count}}, [][]DeferFunc{{d}})
	res := Compile(r)(testCtx("GET", "/"))

	if res == nil || res.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", res)
	}
	if ran != 0 {
		t.Errorf("expected later steps to be skipped, %d ran", ran)
	}
	if deferred != 0 {
		t.Errorf("expected defers to be skipped, %d ran", deferred)
	}
}

func TestCompileDeferOverride(t *testing.T) {
	var seen []int
	first := func(res *Response, c *Ctx) *Response {
		seen = append(seen, res.Status, c.Res().Status)
		return NewResponse(http.StatusAccepted, []byte("replaced"))
	}
	second := func(res *Response, c *Ctx) *Response {
		seen = append(seen, res.Status)
		return nil
	}
	h := func(c *Ctx) *Response { return c.Text(200, "ok") }

	// LIFO: second is declared last so it runs first.
	r := newRoute(http.MethodGet, "/", h, nil, nil, [][]DeferFunc{{first, second}})
	c := testCtx("GET", "/")
	res := Compile(r)(c)

	if !slices.Equal(seen, []int{200, 200, 200}) {
		t.Errorf("expected defers to see 200, got %v", seen)
	}
	if res.Status != http.StatusAccepted || string(res.Body) != "replaced" {
		t.Errorf("expected replaced 202, got %d %q", res.Status, res.Body)
	}
	if c.Res() != res {
		t.Error("expected ctx to hold the final response")
	}
}

func TestCompileSetAndState(t *testing.T) {
	user := NewKey[string]("user")
	id := NewKey[int]("id")

	h := func(c *Ctx) *Response {
		return c.OK(M{"user": user.Get(c), "id": id.Get(c)})
	}
	r := newRoute(http.MethodGet, "/", h, nil, [][]Action{{
		Set(user, func(*Ctx) string { return "ann" }),
		State(id, func(c *Ctx) (int, *Response) {
			if c.Query("id") == "" {
				return 0, c.BadRequest("id required")
			}
			return 7, nil
		}),
	}}, nil)
	fn := Compile(r)

	res := fn(testCtx("GET", "/?id=1"))
	if string(res.Body) != `{"id":7,"user":"ann"}` {
		t.Errorf("unexpected body %s", res.Body)
	}

	res = fn(testCtx("GET", "/"))
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.Status)
	}
}

func TestCompileValidator(t *testing.T) {
	rules := []Rule{
		Validate("page", func(c *Ctx) (any, *Response) { return 2, nil }),
		Validate("auth", func(c *Ctx) (any, *Response) {
			if c.Bearer() == "" {
				return nil, c.Unauthorized("token required")
			}
			return c.Bearer(), nil
		}),
	}
	var state map[string]any
	h := func(c *Ctx) *Response {
		state = c.State()
		return c.NoContent()
	}
	fn := Compile(newRoute(http.MethodGet, "/", h, rules, nil, nil))

	if res := fn(testCtx("GET", "/")); res.Status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", res.Status)
	}
	if state != nil {
		t.Error("expected handler to be skipped")
	}

	c := testCtx("GET", "/")
	c.Request.Header.Set("Authorization", "Bearer abc")
	fn(c)
	if state["page"] != 2 || state["auth"] != "abc" {
		t.Errorf("unexpected state %v", state)
	}
}

func TestActionConstructorsPanicOnNil(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"init", func() { Init(nil) }},
		{"check", func() { Check(nil) }},
		{"set", func() { Set[int](NewKey[int]("x"), nil) }},
		{"state", func() { State[int](NewKey[int]("x"), nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestKindString(t *testing.T) {
	if KindState.String() != "state" || Kind(9).String() != "unknown" {
		t.Error("unexpected kind names")
	}
	a := Set(NewKey[int]("n"), func(*Ctx) int { return 1 })
	if a.Kind() != KindSet || a.Prop() != "n" {
		t.Errorf("expected set action on n, got %s %s", a.Kind(), a.Prop())
	}
}

func BenchmarkCompiledChain(b *testing.B) {
	key := NewKey[int]("n")
	r := newRoute(http.MethodGet, "/", func(c *Ctx) *Response { return nil },
		nil,
		[][]Action{{Init(func(*Ctx) {}), Set(key, func(*Ctx) int { return 1 })}, {Check(func(*Ctx) *Response { return nil })}},
		[][]DeferFunc{{func(res *Response, _ *Ctx) *Response { return nil }}},
	)
	h := Compile(r)
	c := testCtx("GET", "/")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h(c)
	}
}
