package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gomarten/spur"
)

// Timeout returns a plugin that gives every later-declared route a request
// context with deadline d. Handlers must watch c.Context(); a handler that
// returns after the deadline has passed is answered with 504. The context
// is cancelled once the response is written, also when a check ends the
// request before the handler.
func Timeout(d time.Duration) spur.Plugin {
	return spur.PluginFunc(func(app *spur.App) {
		app.Prepare(func(c *spur.Ctx) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), d)
			c.Request = c.Request.WithContext(ctx)
			c.Finally(cancel)
		})
		app.Defer(func(res *spur.Response, c *spur.Ctx) *spur.Response {
			if errors.Is(c.Context().Err(), context.DeadlineExceeded) && !c.Written() {
				return c.JSON(http.StatusGatewayTimeout, spur.E("request timeout"))
			}
			return nil
		})
	})
}
