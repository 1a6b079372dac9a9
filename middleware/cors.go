package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gomarten/spur"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Entries may be glob patterns such
	// as "https://*.example.com". Empty or "*" allows every origin.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	MaxAge           int
	AllowCredentials bool
}

// DefaultCORSConfig returns a permissive CORS config.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}
}

// AllowAll is an action that only sets Access-Control-Allow-Origin: *.
var AllowAll = spur.Init(func(c *spur.Ctx) {
	c.SetHeader("Access-Control-Allow-Origin", "*")
})

// CORS returns an action that sets CORS headers and answers preflight
// requests with 204. Preflights only reach it on routes registered for
// OPTIONS or for any method.
func CORS(cfg CORSConfig) spur.Action {
	wildcard := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")

	var static [][2]string
	if len(cfg.AllowMethods) > 0 {
		static = append(static, [2]string{"Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", ")})
	}
	if len(cfg.AllowHeaders) > 0 {
		static = append(static, [2]string{"Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", ")})
	}
	if len(cfg.ExposeHeaders) > 0 {
		static = append(static, [2]string{"Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", ")})
	}
	if cfg.MaxAge > 0 {
		static = append(static, [2]string{"Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge)})
	}
	if cfg.AllowCredentials && !wildcard {
		static = append(static, [2]string{"Access-Control-Allow-Credentials", "true"})
	}
	match := originMatcher(cfg.AllowOrigins)

	return spur.Check(func(c *spur.Ctx) *spur.Response {
		h := c.Header()
		allowed := wildcard
		if wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Add("Vary", "Origin")
			if origin := c.Request.Header.Get("Origin"); origin != "" && match(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				allowed = true
			}
		}
		if allowed {
			for _, kv := range static {
				h.Set(kv[0], kv[1])
			}
		}
		if c.Request.Method == http.MethodOptions {
			return spur.NewResponse(http.StatusNoContent, nil)
		}
		return nil
	})
}

// originMatcher splits patterns into exact origins and globs.
func originMatcher(patterns []string) func(origin string) bool {
	exact := make(map[string]struct{}, len(patterns))
	var globs []string
	for _, p := range patterns {
		if strings.ContainsAny(p, "*?[{") {
			globs = append(globs, p)
			continue
		}
		exact[p] = struct{}{}
	}
	return func(origin string) bool {
		if _, ok := exact[origin]; ok {
			return true
		}
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, origin); ok {
				return true
			}
		}
		return false
	}
}
