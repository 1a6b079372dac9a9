package spur

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App collects routes, actions and defers, and compiles them into an
// http.Handler on Build.
type App struct {
	actions  []Action
	defers   []DeferFunc
	routes   []*Route
	wrappers []func(http.Handler) http.Handler

	fallback  Handler
	newRouter func() Router
	logger    zerolog.Logger
	onError   func(*Ctx, error)

	pool    sync.Pool
	buildMu sync.Mutex
	handler atomic.Pointer[http.Handler]
}

// New creates an application using the chi router.
func New() *App {
	app := &App{
		newRouter: NewRouter,
		logger:    zerolog.Nop(),
		fallback: func(c *Ctx) *Response {
			return c.Text(http.StatusNotFound, "Not Found")
		},
	}
	app.onError = func(c *Ctx, err error) {
		app.logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("write response")
	}
	app.pool = sync.Pool{
		New: func() any { return newCtx() },
	}
	return app
}

// SetLogger sets the logger used by the app and by plugins that ask for it.
func (a *App) SetLogger(l zerolog.Logger) *App {
	a.logger = l
	return a
}

// Logger returns the app logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// SetRouter replaces the router constructor used by Build.
func (a *App) SetRouter(fn func() Router) *App {
	a.newRouter = fn
	return a
}

// OnError sets the hook called when writing a response fails.
func (a *App) OnError(fn func(*Ctx, error)) *App {
	a.onError = fn
	return a
}

// Fallback sets the handler for requests no route matches.
func (a *App) Fallback(h Handler) *App {
	a.fallback = h
	return a
}

// Wrap adds http middleware around the whole router, outermost first.
// It is the place for host concerns such as panic recovery.
func (a *App) Wrap(mw ...func(http.Handler) http.Handler) *App {
	a.wrappers = append(a.wrappers, mw...)
	return a
}

// Prepare adds functions that run before every later-declared route.
func (a *App) Prepare(fns ...func(*Ctx)) *App {
	for _, fn := range fns {
		a.actions = append(a.actions, Init(fn))
	}
	return a
}

// Use adds checks that may answer early for every later-declared route.
func (a *App) Use(fns ...func(*Ctx) *Response) *App {
	for _, fn := range fns {
		a.actions = append(a.actions, Check(fn))
	}
	return a
}

// Action adds actions of any kind for every later-declared route.
func (a *App) Action(actions ...Action) *App {
	a.actions = append(a.actions, actions...)
	return a
}

// Defer adds functions that run after the handler of every later-declared
// route.
func (a *App) Defer(fns ...DeferFunc) *App {
	a.defers = append(a.defers, fns...)
	return a
}

// Handle registers a route. Route actions run after the app actions.
func (a *App) Handle(method, path string, h Handler, actions ...Action) *App {
	return a.Validated(method, path, nil, h, actions...)
}

// Validated registers a route whose rules run after all actions. A rule
// returning a response ends the request; otherwise the values are exposed
// through Ctx.State.
func (a *App) Validated(method, path string, rules []Rule, h Handler, actions ...Action) *App {
	var segs [][]Action
	if len(a.actions) > 0 {
		segs = append(segs, slices.Clip(a.actions))
	}
	if len(actions) > 0 {
		segs = append(segs, actions)
	}
	var defers [][]DeferFunc
	if len(a.defers) > 0 {
		defers = [][]DeferFunc{slices.Clip(a.defers)}
	}
	a.routes = append(a.routes, newRoute(method, path, h, slices.Clip(rules), segs, defers))
	return a
}

// Route mounts the routes sub has declared so far under base. The current
// actions of a run before those of sub, and its current defers run after
// those of sub.
func (a *App) Route(base string, sub *App) *App {
	for _, r := range sub.routes {
		a.routes = append(a.routes, r.clone(base, a.actions, a.defers))
	}
	return a
}

// Routes returns the declared routes.
func (a *App) Routes() []*Route {
	return slices.Clone(a.routes)
}

// Build compiles every route into a new router and starts serving it.
// Requests already in flight finish on the previous handler.
func (a *App) Build() http.Handler {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()
	return a.build()
}

func (a *App) build() http.Handler {
	rt := a.newRouter()
	for _, r := range a.routes {
		h := a.serve(rt, r, Compile(r))
		if r.method == MethodAny {
			rt.Any(r.path, h)
		} else {
			rt.On(r.method, r.path, h)
		}
		a.logger.Debug().Str("method", methodName(r.method)).Str("path", r.path).Msg("route registered")
	}
	rt.Fallback(a.serve(rt, nil, a.fallback))

	var h http.Handler = rt
	for i := len(a.wrappers) - 1; i >= 0; i-- {
		h = a.wrappers[i](h)
	}
	a.handler.Store(&h)
	a.logger.Info().Int("routes", len(a.routes)).Msg("routes built")
	return h
}

func (a *App) serve(rt Router, r *Route, h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c := a.pool.Get().(*Ctx)
		c.Reset(w, req)
		defer func() {
			c.runCleanup()
			a.pool.Put(c)
		}()

		c.route = r
		rt.Params(req, c.SetParam)
		a.write(c, h(c))
	})
}

func (a *App) write(c *Ctx, res *Response) {
	if c.rw.written {
		return
	}
	dst := c.rw.ResponseWriter.Header()
	for k, v := range c.header {
		dst[k] = v
	}
	c.rw.pending = nil
	if res == nil {
		c.rw.WriteHeader(c.statusOr(http.StatusNoContent))
		return
	}
	for k, v := range res.Header {
		dst[k] = v
	}
	c.rw.WriteHeader(res.StatusOr(c.statusOr(http.StatusOK)))
	if len(res.Body) == 0 || c.Request.Method == http.MethodHead {
		return
	}
	if _, err := c.rw.Write(res.Body); err != nil {
		a.onError(c, err)
	}
}

// ServeHTTP implements http.Handler. The routes are built on first use.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := a.handler.Load()
	if h == nil {
		a.buildMu.Lock()
		if h = a.handler.Load(); h == nil {
			a.build()
			h = a.handler.Load()
		}
		a.buildMu.Unlock()
	}
	(*h).ServeHTTP(w, r)
}

// Run starts the server on the given address.
func (a *App) Run(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: a,
	}
	return server.ListenAndServe()
}

// RunGraceful starts the server and shuts it down on SIGINT or SIGTERM.
func (a *App) RunGraceful(addr string, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx, &http.Server{Addr: addr}, timeout)
}

// Serve runs srv until ctx is done, then shuts it down within timeout.
// A nil srv.Handler serves the app.
func (a *App) Serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	if srv.Handler == nil {
		srv.Handler = a
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.logger.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
