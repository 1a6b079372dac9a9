package spur

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router is the radix-tree router compiled routes are registered with.
// It must make path parameters available through Params before calling
// the registered handler.
type Router interface {
	http.Handler
	On(method, pattern string, h http.Handler)
	Any(pattern string, h http.Handler)
	Fallback(h http.Handler)
	Params(r *http.Request, set func(key, value string))
}

// NewRouter returns a Router backed by chi. Patterns use ":name" for
// parameters and a trailing "*" for the catch-all, read back as Param("*").
func NewRouter() Router {
	return &chiRouter{mux: chi.NewRouter()}
}

type chiRouter struct {
	mux *chi.Mux
}

func (r *chiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *chiRouter) On(method, pattern string, h http.Handler) {
	r.mux.Method(method, chiPattern(pattern), h)
}

func (r *chiRouter) Any(pattern string, h http.Handler) {
	r.mux.Handle(chiPattern(pattern), h)
}

func (r *chiRouter) Fallback(h http.Handler) {
	r.mux.NotFound(h.ServeHTTP)
	r.mux.MethodNotAllowed(h.ServeHTTP)
}

func (r *chiRouter) Params(req *http.Request, set func(key, value string)) {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		return
	}
	keys, values := rctx.URLParams.Keys, rctx.URLParams.Values
	for i := range keys {
		if i < len(values) {
			set(keys[i], values[i])
		}
	}
}

// chiPattern rewrites "/users/:id/*rest" into "/users/{id}/*".
func chiPattern(p string) string {
	if !strings.ContainsAny(p, ":*") {
		return p
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			parts[i] = "{" + part[1:] + "}"
		case strings.HasPrefix(part, "*"):
			parts[i] = "*"
		}
	}
	return strings.Join(parts, "/")
}
