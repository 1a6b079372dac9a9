package spur

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Ctx carries one request through a compiled route. It is owned by that
// request and reused from a pool afterwards.
type Ctx struct {
	Request *http.Request
	Writer  http.ResponseWriter

	rw        responseWriter
	route     *Route
	params    map[string]string
	store     map[string]any
	state     map[string]any
	header    http.Header
	status    int
	res       *Response
	requestID string
	cleanup   []func()
}

func newCtx() *Ctx {
	return &Ctx{
		params: make(map[string]string),
		store:  make(map[string]any),
		header: make(http.Header),
	}
}

// Route returns the route being served, or nil for the fallback handler.
func (c *Ctx) Route() *Route {
	return c.route
}

// Param returns a path parameter by name.
func (c *Ctx) Param(name string) string {
	return c.params[name]
}

// ParamInt returns a path parameter as int (0 if invalid).
func (c *Ctx) ParamInt(name string) int {
	v, _ := strconv.Atoi(c.params[name])
	return v
}

// ParamInt64 returns a path parameter as int64 (0 if invalid).
func (c *Ctx) ParamInt64(name string) int64 {
	v, _ := strconv.ParseInt(c.params[name], 10, 64)
	return v
}

// Params returns all path parameters. The map must not be retained.
func (c *Ctx) Params() map[string]string {
	return c.params
}

// RawQuery returns the undecoded query string without the leading '?'.
func (c *Ctx) RawQuery() string {
	if c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.RawQuery
}

// Query returns a query parameter by name.
func (c *Ctx) Query(name string) string {
	if c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.Query().Get(name)
}

// QueryDefault returns a query parameter or def if empty.
func (c *Ctx) QueryDefault(name, def string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return def
}

// SetStatus sets the status used by response helpers that take none.
func (c *Ctx) SetStatus(code int) *Ctx {
	c.status = code
	return c
}

// StatusCode returns the status set with SetStatus (0 if none).
func (c *Ctx) StatusCode() int {
	return c.status
}

// Header returns the response headers collected for this request. They are
// written before the headers of the returned Response.
func (c *Ctx) Header() http.Header {
	return c.header
}

// SetHeader sets a response header.
func (c *Ctx) SetHeader(key, value string) *Ctx {
	c.header.Set(key, value)
	return c
}

// Res returns the in-flight response while defers run.
func (c *Ctx) Res() *Response {
	return c.res
}

// State returns the values produced by the route validator.
func (c *Ctx) State() map[string]any {
	return c.state
}

func (c *Ctx) statusOr(def int) int {
	if c.status != 0 {
		return c.status
	}
	return def
}

// Body creates a response with the context status (200 if unset).
func (c *Ctx) Body(b []byte) *Response {
	return &Response{Status: c.statusOr(http.StatusOK), Header: make(http.Header), Body: b}
}

// Blob creates a response with the given status and content type.
func (c *Ctx) Blob(code int, contentType string, b []byte) *Response {
	res := NewResponse(code, b)
	if contentType != "" {
		res.Header.Set("Content-Type", contentType)
	}
	return res
}

// Text creates a plain text response.
func (c *Ctx) Text(code int, text string) *Response {
	return c.Blob(code, MIMEText, []byte(text))
}

// HTML creates an HTML response.
func (c *Ctx) HTML(code int, html string) *Response {
	return c.Blob(code, MIMEHTML, []byte(html))
}

// JSON creates a JSON response. Encoding failures become a 500.
func (c *Ctx) JSON(code int, v any) *Response {
	b, err := json.Marshal(v)
	if err != nil {
		return c.Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.Blob(code, MIMEJSON, b)
}

// OK sends a 200 JSON response.
func (c *Ctx) OK(v any) *Response {
	return c.JSON(http.StatusOK, v)
}

// Created sends a 201 JSON response.
func (c *Ctx) Created(v any) *Response {
	return c.JSON(http.StatusCreated, v)
}

// NoContent sends a 204 response.
func (c *Ctx) NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// BadRequest sends a 400 JSON error response.
func (c *Ctx) BadRequest(message string) *Response {
	return c.JSON(http.StatusBadRequest, E(message))
}

// Unauthorized sends a 401 JSON error response.
func (c *Ctx) Unauthorized(message string) *Response {
	return c.JSON(http.StatusUnauthorized, E(message))
}

// Forbidden sends a 403 JSON error response.
func (c *Ctx) Forbidden(message string) *Response {
	return c.JSON(http.StatusForbidden, E(message))
}

// NotFound sends a 404 JSON error response.
func (c *Ctx) NotFound(message string) *Response {
	return c.JSON(http.StatusNotFound, E(message))
}

// ServerError sends a 500 JSON error response.
func (c *Ctx) ServerError(message string) *Response {
	return c.JSON(http.StatusInternalServerError, E(message))
}

// Redirect sends a redirect response.
func (c *Ctx) Redirect(code int, url string) *Response {
	res := NewResponse(code, nil)
	res.Header.Set("Location", url)
	return res
}

// Context returns the request's context.
func (c *Ctx) Context() context.Context {
	if c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// Bind decodes a JSON request body into v.
func (c *Ctx) Bind(v any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return &BindError{Message: "empty request body"}
	}
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		return &BindError{Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// BindError represents a binding error.
type BindError struct {
	Message string
}

func (e *BindError) Error() string {
	return e.Message
}

// RequestID returns the X-Request-ID header or a fresh UUID.
func (c *Ctx) RequestID() string {
	if c.requestID == "" {
		if id := c.Request.Header.Get("X-Request-ID"); id != "" {
			c.requestID = id
		} else {
			c.requestID = uuid.NewString()
		}
	}
	return c.requestID
}

// ClientIP extracts the client IP from proxy headers or the remote address.
func (c *Ctx) ClientIP() string {
	if c.Request == nil {
		return ""
	}
	if xff := c.Request.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := c.Request.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := c.Request.RemoteAddr
	if strings.HasPrefix(addr, "[") {
		if i := strings.LastIndex(addr, "]"); i > 0 {
			return addr[1:i]
		}
	}
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}

// Origin returns scheme://host of the request itself.
func (c *Ctx) Origin() string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.Request.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host
}

// Bearer extracts the Bearer token from the Authorization header.
func (c *Ctx) Bearer() string {
	auth := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return auth[7:]
	}
	return ""
}

// IsJSON reports whether the request Content-Type is application/json.
func (c *Ctx) IsJSON() bool {
	return strings.HasPrefix(c.Request.Header.Get("Content-Type"), "application/json")
}

// Method returns the request method.
func (c *Ctx) Method() string {
	return c.Request.Method
}

// Path returns the request path.
func (c *Ctx) Path() string {
	return c.Request.URL.Path
}

// Set stores a request property.
func (c *Ctx) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

// Get retrieves a request property.
func (c *Ctx) Get(key string) any {
	if c.store == nil {
		return nil
	}
	return c.store[key]
}

// GetString retrieves a string request property.
func (c *Ctx) GetString(key string) string {
	if v, ok := c.Get(key).(string); ok {
		return v
	}
	return ""
}

// GetInt retrieves an int request property.
func (c *Ctx) GetInt(key string) int {
	if v, ok := c.Get(key).(int); ok {
		return v
	}
	return 0
}

// GetBool retrieves a bool request property.
func (c *Ctx) GetBool(key string) bool {
	if v, ok := c.Get(key).(bool); ok {
		return v
	}
	return false
}

// Cookie returns a cookie value by name.
func (c *Ctx) Cookie(name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetCookie adds a Set-Cookie header to the response.
func (c *Ctx) SetCookie(cookie *http.Cookie) {
	if v := cookie.String(); v != "" {
		c.header.Add("Set-Cookie", v)
	}
}

// File returns a file from a multipart form.
func (c *Ctx) File(name string) (*multipart.FileHeader, error) {
	_, fh, err := c.Request.FormFile(name)
	return fh, err
}

// Finally registers fn to run once the response has been written, whether
// or not the handler ran. Functions run last registered first.
func (c *Ctx) Finally(fn func()) {
	c.cleanup = append(c.cleanup, fn)
}

func (c *Ctx) runCleanup() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	clear(c.cleanup)
	c.cleanup = c.cleanup[:0]
}

// Written reports whether the handler wrote to Writer directly.
func (c *Ctx) Written() bool {
	return c.rw.written
}

// SetParam sets a path parameter.
func (c *Ctx) SetParam(key, value string) {
	c.params[key] = value
}

// Reset clears the context for reuse.
func (c *Ctx) Reset(w http.ResponseWriter, r *http.Request) {
	c.rw = responseWriter{ResponseWriter: w, pending: c.header}
	c.Writer = &c.rw
	c.Request = r
	c.route = nil
	c.state = nil
	c.status = 0
	c.res = nil
	c.requestID = ""
	clear(c.params)
	clear(c.store)
	clear(c.header)
	clear(c.cleanup)
	c.cleanup = c.cleanup[:0]
}
