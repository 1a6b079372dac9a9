package middleware

import (
	"net/http"
	"time"

	"github.com/gomarten/spur"
	"github.com/rs/zerolog"
)

var requestStart = spur.NewKey[time.Time]("spur.logger.start")

// LoggerConfig configures the request logger.
type LoggerConfig struct {
	// Logger overrides the app logger.
	Logger *zerolog.Logger
	// Skip is a function to skip logging for certain requests.
	Skip func(*spur.Ctx) bool
}

// Logger returns a plugin logging method, path, status and duration of
// every request answered by a later-declared route handler.
func Logger(cfg LoggerConfig) spur.Plugin {
	return spur.PluginFunc(func(app *spur.App) {
		logger := app.Logger()
		if cfg.Logger != nil {
			logger = *cfg.Logger
		}
		app.Action(spur.Set(requestStart, func(*spur.Ctx) time.Time { return time.Now() }))
		app.Defer(func(res *spur.Response, c *spur.Ctx) *spur.Response {
			if cfg.Skip != nil && cfg.Skip(c) {
				return nil
			}
			status := statusOf(res, c)
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error()
			case status >= 400:
				ev = logger.Warn()
			default:
				ev = logger.Info()
			}
			ev.Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(requestStart.Get(c))).
				Str("client_ip", c.ClientIP()).
				Str("request_id", c.RequestID()).
				Msg("request")
			return nil
		})
	})
}

// statusOf returns the status that will be written for res.
func statusOf(res *spur.Response, c *spur.Ctx) int {
	def := http.StatusOK
	if res == nil {
		def = http.StatusNoContent
	}
	if s := c.StatusCode(); s != 0 {
		def = s
	}
	return res.StatusOr(def)
}
