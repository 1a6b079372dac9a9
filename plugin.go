package spur

// Plugin bundles actions, defers or routes that are applied to an app.
type Plugin interface {
	Plug(*App)
}

// PluginFunc adapts a function to Plugin.
type PluginFunc func(*App)

// Plug calls f(app).
func (f PluginFunc) Plug(app *App) { f(app) }

// Register applies plugins in order.
func (a *App) Register(plugins ...Plugin) *App {
	for _, p := range plugins {
		p.Plug(a)
	}
	return a
}
