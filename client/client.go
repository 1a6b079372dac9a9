// Package client is an HTTP client for services built with spur. It fills
// route patterns, encodes query parameters and bodies, and can call an
// http.Handler in process for tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gomarten/spur/query"
)

// Init describes one request.
type Init struct {
	// Params fill the ":name" and "*" segments of the path.
	Params map[string]string
	// Query is encoded with query.Stringify.
	Query map[string]any
	// Body is sent as is for string, []byte, io.Reader and url.Values, and
	// as JSON otherwise.
	Body   any
	Header http.Header
}

// Client sends requests relative to a base URL.
type Client struct {
	base   string
	hc     *http.Client
	header http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithHandler serves every request with h in process.
func WithHandler(h http.Handler) Option {
	return func(c *Client) {
		c.hc = &http.Client{Transport: handlerTransport{h}}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// New creates a client. A trailing slash on baseURL is dropped.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		hc:     http.DefaultClient,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL builds the request URL for path and init.
func (c *Client) URL(path string, init *Init) string {
	if init == nil {
		return c.base + path
	}
	if init.Params != nil {
		path = Inject(path, init.Params)
	}
	return c.base + path + query.Stringify(init.Query)
}

// Request builds a request without sending it.
func (c *Client) Request(ctx context.Context, method, path string, init *Init) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	if init != nil && init.Body != nil {
		var err error
		body, contentType, err = encodeBody(init.Body)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, init), body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = append([]string(nil), v...)
	}
	if init != nil {
		for k, v := range init.Header {
			req.Header[k] = append([]string(nil), v...)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Do sends a request.
func (c *Client) Do(ctx context.Context, method, path string, init *Init) (*http.Response, error) {
	req, err := c.Request(ctx, method, path, init)
	if err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return res, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, init)
}

// Head sends a HEAD request.
func (c *Client) Head(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodHead, path, init)
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, init)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, path, init)
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodPatch, path, init)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, init)
}

// Options sends an OPTIONS request.
func (c *Client) Options(ctx context.Context, path string, init *Init) (*http.Response, error) {
	return c.Do(ctx, http.MethodOptions, path, init)
}

// JSON sends a request and decodes a JSON response into v. Responses with
// a status of 400 or above are returned as *StatusError.
func (c *Client) JSON(ctx context.Context, method, path string, init *Init, v any) error {
	res, err := c.Do(ctx, method, path, init)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{Code: res.StatusCode, Body: string(b)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// StatusError is returned by JSON for error responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: status %d: %s", e.Code, e.Body)
}

func encodeBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		return b, "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("client: encode body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// handlerTransport serves requests with an http.Handler.
type handlerTransport struct {
	h http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	res := rec.Result()
	res.Request = req
	return res, nil
}
