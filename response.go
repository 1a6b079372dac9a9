package spur

import (
	"encoding/json"
	"net/http"
)

// Content types used by the response helpers.
const (
	MIMEText = "text/plain; charset=utf-8"
	MIMEHTML = "text/html; charset=utf-8"
	MIMEJSON = "application/json; charset=utf-8"
)

// Response is a finished HTTP response. Returning one from a Check or State
// action ends the chain early.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with an empty header set.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// Clone returns a copy that can be modified without touching r.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{Status: r.Status, Header: r.Header.Clone(), Body: r.Body}
}

// StatusOr returns the response status, or def when none is set.
func (r *Response) StatusOr(def int) int {
	if r == nil || r.Status == 0 {
		return def
	}
	return r.Status
}

// E creates a simple error body.
func E(message string) map[string]string {
	return map[string]string{"error": message}
}

// M is a shorthand for map[string]any.
type M map[string]any

// SendBody returns a handler that always answers with body. The response
// is built once and cloned per request.
func SendBody(status int, body []byte, contentType string) Handler {
	res := NewResponse(status, body)
	if contentType != "" {
		res.Header.Set("Content-Type", contentType)
	}
	return func(*Ctx) *Response { return res.Clone() }
}

// SendText returns a handler that always answers with text.
func SendText(status int, text string) Handler {
	return SendBody(status, []byte(text), MIMEText)
}

// SendHTML returns a handler that always answers with html.
func SendHTML(status int, html string) Handler {
	return SendBody(status, []byte(html), MIMEHTML)
}

// SendJSON returns a handler that always answers with v encoded as JSON.
// It panics if v cannot be encoded.
func SendJSON(status int, v any) Handler {
	b, err := json.Marshal(v)
	if err != nil {
		panic("spur: SendJSON: " + err.Error())
	}
	return SendBody(status, b, MIMEJSON)
}
