package main

import (
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gomarten/spur"
	"github.com/gomarten/spur/config"
	"github.com/gomarten/spur/form"
	"github.com/gomarten/spur/middleware"
	"github.com/gomarten/spur/query"
)

// Note is one stored note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}

type noteStore struct {
	mu    sync.RWMutex
	notes map[string]Note
}

func newNoteStore() *noteStore {
	return &noteStore{notes: make(map[string]Note)}
}

func (s *noteStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *noteStore) put(n Note) {
	s.mu.Lock()
	s.notes[n.ID] = n
	s.mu.Unlock()
}

func (s *noteStore) get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

func (s *noteStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false
	}
	delete(s.notes, id)
	return true
}

// list returns the notes matching fn, oldest first.
func (s *noteStore) list(fn func(Note) bool) []Note {
	s.mu.RLock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if fn(n) {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var (
	listQuery = spur.NewKey[query.Values]("notes.query")
	noteForm  = spur.NewKey[form.Values]("notes.form")
)

type server struct {
	notes  *noteStore
	timing *middleware.Timing
}

// newApp builds the notes application for cfg. Query schemas are compiled
// after the decode setting is applied.
func newApp(cfg *config.Config, logger zerolog.Logger, notes *noteStore) *spur.App {
	query.SetDecode(!cfg.Query.RawValues)

	s := &server{
		notes:  notes,
		timing: middleware.NewTiming(middleware.Metric{Name: "store", Desc: "note store"}),
	}

	app := spur.New().SetLogger(logger)
	app.Wrap(middleware.Recover(logger))
	app.Action(middleware.RequestID, middleware.SecureDefault)
	app.Register(middleware.Logger(middleware.LoggerConfig{
		Skip: func(c *spur.Ctx) bool { return c.Path() == cfg.Metrics.Path },
	}))

	if cfg.Metrics.Enabled {
		m := middleware.NewMetrics(middleware.MetricsConfig{Prefix: cfg.Metrics.Prefix})
		metrics := m.Handler()
		app.GET(cfg.Metrics.Path, func(c *spur.Ctx) *spur.Response {
			metrics.ServeHTTP(c.Writer, c.Request)
			return nil
		})
		app.Register(m)
	}

	if cfg.CORS.Enabled {
		app.Action(middleware.CORS(middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowMethods:     orDefault(cfg.CORS.AllowMethods, middleware.DefaultCORSConfig().AllowMethods),
			AllowHeaders:     orDefault(cfg.CORS.AllowHeaders, middleware.DefaultCORSConfig().AllowHeaders),
			ExposeHeaders:    cfg.CORS.ExposeHeaders,
			MaxAge:           cfg.CORS.MaxAge,
			AllowCredentials: cfg.CORS.AllowCredentials,
		}))
		app.OPTIONS("/*", func(c *spur.Ctx) *spur.Response { return c.NoContent() })
	}
	if cfg.Limits.RateRequests > 0 {
		app.Action(middleware.RateLimit(middleware.RateLimitConfig{
			Requests: cfg.Limits.RateRequests,
			Window:   cfg.Limits.RateWindow,
		}))
	}
	if cfg.Limits.BodyBytes > 0 {
		app.Action(middleware.BodyLimit(cfg.Limits.BodyBytes))
	}
	if cfg.Server.RequestTimeout > 0 {
		app.Register(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	app.Defer(middleware.Compress(middleware.DefaultCompressConfig()), middleware.ETag)
	app.Register(s.timing)

	app.GET("/health", func(c *spur.Ctx) *spur.Response {
		return c.OK(spur.M{"status": "ok", "notes": notes.len()})
	})

	var unsafe []spur.Action
	if cfg.CSRF.Enabled {
		unsafe = append(unsafe, middleware.CSRF(middleware.CSRFConfig{Origins: cfg.CSRF.Origins}))
	}

	listSchema := query.Compile(
		query.Field{Name: "tag", MaxItems: 5},
		query.Field{Name: "pinned", Type: query.TypeBool},
	)
	searchSchema := query.Compile(query.Field{Name: "q"})
	createSchema := form.Compile(
		form.Field{Name: "title"},
		form.Field{Name: "body"},
		form.Field{Name: "tags", Multiple: true},
		form.Field{Name: "pinned", Type: form.TypeBool},
	)
	if cfg.Limits.BodyBytes > 0 {
		createSchema.MaxBytes = cfg.Limits.BodyBytes
	}

	app.Group("/api/v1", func(g *spur.App) {
		g.GET("/notes", s.listNotes, spur.QueryState(listQuery, listSchema, nil))
		g.GET("/notes/:id", s.getNote)
		g.POST("/notes", s.createNote, append(slices.Clone(unsafe), spur.FormState(noteForm, createSchema, func(c *spur.Ctx) *spur.Response {
			return c.BadRequest("title and body are required")
		}))...)
		g.PUT("/notes/:id", s.updateNote, unsafe...)
		g.DELETE("/notes/:id", s.deleteNote, unsafe...)
		g.Validated(http.MethodGet, "/search", []spur.Rule{spur.QueryRule("query", searchSchema, nil)}, s.search)
	})
	return app
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func (s *server) store(c *spur.Ctx) func() {
	rec := s.timing.Record(c)
	rec.Start("store")
	return func() { rec.End("store") }
}

func (s *server) listNotes(c *spur.Ctx) *spur.Response {
	q := listQuery.Get(c)
	tags, pinned := q.Strings("tag"), q.Bool("pinned")

	done := s.store(c)
	list := s.notes.list(func(n Note) bool {
		if pinned && !n.Pinned {
			return false
		}
		for _, t := range tags {
			if !slices.Contains(n.Tags, t) {
				return false
			}
		}
		return true
	})
	done()

	return c.OK(spur.M{"notes": list, "total": len(list)})
}

func (s *server) getNote(c *spur.Ctx) *spur.Response {
	done := s.store(c)
	n, ok := s.notes.get(c.Param("id"))
	done()
	if !ok {
		return c.NotFound("note not found")
	}
	return c.OK(n)
}

func (s *server) createNote(c *spur.Ctx) *spur.Response {
	f := noteForm.Get(c)
	n := Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(f.String("title")),
		Body:      f.String("body"),
		Tags:      f.Strings("tags"),
		Pinned:    f.Bool("pinned"),
		CreatedAt: time.Now(),
	}
	if n.Title == "" {
		return c.BadRequest("title must not be blank")
	}

	done := s.store(c)
	s.notes.put(n)
	done()

	res := c.Created(n)
	res.Header.Set("Location", "/api/v1/notes/"+n.ID)
	return res
}

func (s *server) updateNote(c *spur.Ctx) *spur.Response {
	var input struct {
		Title  *string  `json:"title"`
		Body   *string  `json:"body"`
		Tags   []string `json:"tags"`
		Pinned *bool    `json:"pinned"`
	}
	if err := c.Bind(&input); err != nil {
		return c.BadRequest(err.Error())
	}

	done := s.store(c)
	defer done()
	n, ok := s.notes.get(c.Param("id"))
	if !ok {
		return c.NotFound("note not found")
	}
	if input.Title != nil {
		n.Title = *input.Title
	}
	if input.Body != nil {
		n.Body = *input.Body
	}
	if input.Tags != nil {
		n.Tags = input.Tags
	}
	if input.Pinned != nil {
		n.Pinned = *input.Pinned
	}
	s.notes.put(n)
	return c.OK(n)
}

func (s *server) deleteNote(c *spur.Ctx) *spur.Response {
	done := s.store(c)
	ok := s.notes.delete(c.Param("id"))
	done()
	if !ok {
		return c.NotFound("note not found")
	}
	return c.NoContent()
}

func (s *server) search(c *spur.Ctx) *spur.Response {
	q := strings.ToLower(c.State()["query"].(query.Values).String("q"))

	done := s.store(c)
	list := s.notes.list(func(n Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Body), q)
	})
	done()

	return c.OK(spur.M{"notes": list, "total": len(list)})
}
