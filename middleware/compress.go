package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gomarten/spur"
)

// CompressConfig configures compression.
type CompressConfig struct {
	Level        int
	MinSize      int
	ContentTypes []string
}

// DefaultCompressConfig returns sensible defaults.
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level:   gzip.DefaultCompression,
		MinSize: 1024,
		ContentTypes: []string{
			"text/plain",
			"text/html",
			"text/css",
			"text/javascript",
			"application/json",
			"application/javascript",
			"application/xml",
		},
	}
}

// Compress returns a defer that gzips response bodies of at least MinSize
// bytes with an allowed content type when the client accepts gzip.
func Compress(cfg CompressConfig) spur.DeferFunc {
	if cfg.MinSize == 0 {
		cfg.MinSize = 1024
	}
	if cfg.Level == 0 {
		cfg.Level = gzip.DefaultCompression
	}
	pool := sync.Pool{
		New: func() any {
			w, err := gzip.NewWriterLevel(io.Discard, cfg.Level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	}
	allowed := func(ct string) bool {
		for _, t := range cfg.ContentTypes {
			if strings.HasPrefix(ct, t) {
				return true
			}
		}
		return false
	}

	return func(res *spur.Response, c *spur.Ctx) *spur.Response {
		if res == nil || len(res.Body) < cfg.MinSize {
			return nil
		}
		if !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			return nil
		}
		if res.Header.Get("Content-Encoding") != "" {
			return nil
		}
		ct := res.Header.Get("Content-Type")
		if ct == "" {
			ct = c.Header().Get("Content-Type")
		}
		if !allowed(ct) {
			return nil
		}

		var buf bytes.Buffer
		gw := pool.Get().(*gzip.Writer)
		gw.Reset(&buf)
		_, err := gw.Write(res.Body)
		if cerr := gw.Close(); err == nil {
			err = cerr
		}
		pool.Put(gw)
		if err != nil {
			return nil
		}

		out := res.Clone()
		if out.Header == nil {
			out.Header = make(http.Header)
		}
		out.Header.Set("Content-Encoding", "gzip")
		out.Header.Add("Vary", "Accept-Encoding")
		out.Header.Del("Content-Length")
		out.Body = buf.Bytes()
		return out
	}
}
