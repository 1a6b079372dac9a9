package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// RecoverConfig configures panic recovery.
type RecoverConfig struct {
	Logger zerolog.Logger
	// OnPanic writes the response after a panic. If nil, a plain 500 is sent.
	OnPanic func(w http.ResponseWriter, r *http.Request, err any)
}

// Recover returns host middleware for App.Wrap that turns panics into 500
// responses and logs them with their stack.
func Recover(logger zerolog.Logger) func(http.Handler) http.Handler {
	return RecoverWithConfig(RecoverConfig{Logger: logger})
}

// RecoverWithConfig returns panic recovery with custom config.
func RecoverWithConfig(cfg RecoverConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				cfg.Logger.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				if cfg.OnPanic != nil {
					cfg.OnPanic(w, r, rec)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverJSON answers panics with a JSON error body.
func RecoverJSON(w http.ResponseWriter, _ *http.Request, err any) {
	b, _ := json.Marshal(map[string]string{
		"error":   "internal server error",
		"message": fmt.Sprint(err),
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(b)
}
