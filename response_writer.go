package spur

import (
	"bufio"
	"net"
	"net/http"
)

// responseWriter records whether a handler wrote to the connection itself,
// so the returned response is not written a second time. Headers collected
// on the Ctx are flushed into the real header map on the first write.
type responseWriter struct {
	http.ResponseWriter
	pending http.Header
	status  int
	size    int
	written bool
}

var (
	_ http.Flusher  = (*responseWriter)(nil)
	_ http.Hijacker = (*responseWriter)(nil)
)

func (rw *responseWriter) WriteHeader(status int) {
	if rw.written {
		return
	}
	if len(rw.pending) > 0 {
		dst := rw.ResponseWriter.Header()
		for k, v := range rw.pending {
			dst[k] = v
		}
	}
	rw.status = status
	rw.written = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		if !rw.written {
			rw.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		rw.written = true
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
