package middleware

import (
	"net/http"

	"github.com/gomarten/spur"
)

// CSRFConfig configures the CSRF check. With neither Origins nor Verify
// set, the Origin header must equal the origin of the request itself.
type CSRFConfig struct {
	// Origins lists trusted origins, glob patterns allowed.
	Origins []string
	// Verify reports whether an origin is trusted. When both Origins and
	// Verify are set, an origin must pass both.
	Verify func(origin string) bool
	// Fallback answers rejected requests. The default is an empty 403.
	Fallback spur.Handler
}

// CSRF returns an action rejecting requests whose Origin header is not
// trusted.
func CSRF(cfg CSRFConfig) spur.Action {
	reject := cfg.Fallback
	if reject == nil {
		reject = func(*spur.Ctx) *spur.Response {
			return spur.NewResponse(http.StatusForbidden, nil)
		}
	}

	var trusted func(c *spur.Ctx, origin string) bool
	switch {
	case len(cfg.Origins) > 0 && cfg.Verify != nil:
		match, verify := originMatcher(cfg.Origins), cfg.Verify
		trusted = func(_ *spur.Ctx, o string) bool { return match(o) && verify(o) }
	case len(cfg.Origins) > 0:
		match := originMatcher(cfg.Origins)
		trusted = func(_ *spur.Ctx, o string) bool { return match(o) }
	case cfg.Verify != nil:
		verify := cfg.Verify
		trusted = func(_ *spur.Ctx, o string) bool { return verify(o) }
	default:
		trusted = func(c *spur.Ctx, o string) bool { return o == c.Origin() }
	}

	return spur.Check(func(c *spur.Ctx) *spur.Response {
		if trusted(c, c.Request.Header.Get("Origin")) {
			return nil
		}
		if res := reject(c); res != nil {
			return res
		}
		return spur.NewResponse(http.StatusForbidden, nil)
	})
}
