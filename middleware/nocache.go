package middleware

import "github.com/gomarten/spur"

// NoCache sets headers to prevent caching.
var NoCache = spur.Init(func(c *spur.Ctx) {
	h := c.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Surrogate-Control", "no-store")
})
