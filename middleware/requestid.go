package middleware

import "github.com/gomarten/spur"

// RequestID echoes the request ID, or a fresh UUID, in X-Request-ID.
var RequestID = spur.Init(func(c *spur.Ctx) {
	c.SetHeader("X-Request-ID", c.RequestID())
})
