package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gomarten/spur"
)

// Size constants
const (
	KB int64 = 1024
	MB int64 = 1024 * KB
	GB int64 = 1024 * MB
)

// ErrBodyTooLarge is returned by reads past the body limit.
var ErrBodyTooLarge = errors.New("request body too large")

// BodyLimit returns an action that rejects bodies declared larger than
// maxSize and makes reads fail once maxSize bytes have been consumed.
func BodyLimit(maxSize int64) spur.Action {
	return spur.Check(func(c *spur.Ctx) *spur.Response {
		if c.Request.ContentLength > maxSize {
			return c.JSON(http.StatusRequestEntityTooLarge, spur.E("request body too large"))
		}
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = &limitedReader{reader: c.Request.Body, maxSize: maxSize}
		}
		return nil
	})
}

type limitedReader struct {
	reader  io.ReadCloser
	maxSize int64
	read    int64
}

func (r *limitedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)
	if r.read > r.maxSize {
		return n, ErrBodyTooLarge
	}
	return n, err
}

func (r *limitedReader) Close() error {
	return r.reader.Close()
}
