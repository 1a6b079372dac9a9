package spur

import (
	"slices"
	"strings"
)

// MethodAny is the method of routes that match every request method.
const MethodAny = ""

// Route is an immutable route declaration. Mounting never changes a route;
// it creates a new one with a longer path and extra chain segments.
type Route struct {
	method    string
	path      string
	handler   Handler
	validator []Rule

	// actions holds one segment per app layer, outermost first.
	actions [][]Action
	// defers holds one segment per app layer, innermost first.
	defers [][]DeferFunc
}

func newRoute(method, path string, h Handler, validator []Rule, actions [][]Action, defers [][]DeferFunc) *Route {
	if h == nil {
		panic("spur: nil handler for " + methodName(method) + " " + path)
	}
	return &Route{
		method:    method,
		path:      cleanPath(path),
		handler:   h,
		validator: validator,
		actions:   actions,
		defers:    defers,
	}
}

// Method returns the HTTP method, or MethodAny.
func (r *Route) Method() string { return r.method }

// Path returns the route pattern.
func (r *Route) Path() string { return r.path }

// Handler returns the terminal handler.
func (r *Route) Handler() Handler { return r.handler }

// Actions returns the action segments, outermost app first.
func (r *Route) Actions() [][]Action { return r.actions }

// Defers returns the defer segments, innermost app first.
func (r *Route) Defers() [][]DeferFunc { return r.defers }

// Validator returns the validator rules.
func (r *Route) Validator() []Rule { return r.validator }

func (r *Route) String() string {
	return methodName(r.method) + " " + r.path
}

// clone returns the route as seen from an app that mounts it under base
// and runs actions before it and defers after it.
func (r *Route) clone(base string, actions []Action, defers []DeferFunc) *Route {
	out := &Route{
		method:    r.method,
		path:      joinPath(base, r.path),
		handler:   r.handler,
		validator: r.validator,
		actions:   r.actions,
		defers:    r.defers,
	}
	if len(actions) > 0 {
		out.actions = make([][]Action, 0, len(r.actions)+1)
		out.actions = append(out.actions, slices.Clip(actions))
		out.actions = append(out.actions, r.actions...)
	}
	if len(defers) > 0 {
		out.defers = make([][]DeferFunc, 0, len(r.defers)+1)
		out.defers = append(out.defers, r.defers...)
		out.defers = append(out.defers, slices.Clip(defers))
	}
	return out
}

func methodName(method string) string {
	if method == MethodAny {
		return "ANY"
	}
	return method
}

func isRoot(p string) bool {
	return p == "" || p == "/"
}

// joinPath mounts p under base: "/" under "/api" is "/api" and "/x" under
// "/" is "/x".
func joinPath(base, p string) string {
	switch {
	case isRoot(base):
		return cleanPath(p)
	case isRoot(p):
		return cleanPath(base)
	}
	return cleanPath(base + "/" + p)
}

// cleanPath adds a leading slash, collapses repeated slashes and drops a
// trailing slash unless the path is the root.
func cleanPath(p string) string {
	if p == "/" {
		return p
	}
	if len(p) > 0 && p[0] == '/' && !strings.Contains(p, "//") && p[len(p)-1] != '/' {
		return p
	}
	var b strings.Builder
	b.Grow(len(p) + 1)
	b.WriteByte('/')
	slash := true
	for i := 0; i < len(p); i++ {
		ch := p[i]
		if ch == '/' {
			if slash {
				continue
			}
			slash = true
		} else {
			slash = false
		}
		b.WriteByte(ch)
	}
	out := b.String()
	if len(out) > 1 && out[len(out)-1] == '/' {
		out = out[:len(out)-1]
	}
	return out
}
