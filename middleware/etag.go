package middleware

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"

	"github.com/gomarten/spur"
)

// ETag is a defer that tags successful GET and HEAD responses with a hash
// of their body and answers matching If-None-Match requests with 304.
func ETag(res *spur.Response, c *spur.Ctx) *spur.Response {
	if res == nil || len(res.Body) == 0 {
		return nil
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return nil
	}
	if status := statusOf(res, c); status < 200 || status >= 300 {
		return nil
	}

	hash := sha1.Sum(res.Body)
	etag := `"` + hex.EncodeToString(hash[:8]) + `"`
	if c.Request.Header.Get("If-None-Match") == etag {
		out := spur.NewResponse(http.StatusNotModified, nil)
		out.Header.Set("ETag", etag)
		return out
	}
	out := res.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	out.Header.Set("ETag", etag)
	return out
}
