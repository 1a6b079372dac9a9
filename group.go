package spur

import "net/http"

// Group declares routes on a fresh app and mounts them under prefix. The
// app actions and defers declared so far apply to the group.
func (a *App) Group(prefix string, fn func(g *App)) *App {
	g := New()
	g.logger = a.logger
	fn(g)
	return a.Route(prefix, g)
}

// GET registers a GET route.
func (a *App) GET(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodGet, path, h, actions...)
}

// HEAD registers a HEAD route.
func (a *App) HEAD(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodHead, path, h, actions...)
}

// POST registers a POST route.
func (a *App) POST(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodPost, path, h, actions...)
}

// PUT registers a PUT route.
func (a *App) PUT(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodPut, path, h, actions...)
}

// PATCH registers a PATCH route.
func (a *App) PATCH(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodPatch, path, h, actions...)
}

// DELETE registers a DELETE route.
func (a *App) DELETE(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodDelete, path, h, actions...)
}

// OPTIONS registers an OPTIONS route.
func (a *App) OPTIONS(path string, h Handler, actions ...Action) *App {
	return a.Handle(http.MethodOptions, path, h, actions...)
}

// Any registers a route for every method.
func (a *App) Any(path string, h Handler, actions ...Action) *App {
	return a.Handle(MethodAny, path, h, actions...)
}
