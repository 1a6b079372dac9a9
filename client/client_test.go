package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gomarten/spur"
)

func TestInject(t *testing.T) {
	tests := []struct {
		pattern string
		params  map[string]string
		want    string
	}{
		{"/", nil, "/"},
		{"/users", nil, "/users"},
		{"/users/:id", map[string]string{"id": "42"}, "/users/42"},
		{"/users/:id/posts/:post", map[string]string{"id": "1", "post": "2"}, "/users/1/posts/2"},
		{"/users/:id", map[string]string{"id": "a b/c"}, "/users/a%20b%2Fc"},
		{"/files/*", map[string]string{"*": "docs/readme.md"}, "/files/docs/readme.md"},
		{"/u/:id/*", map[string]string{"id": "7", "*": "x/y"}, "/u/7/x/y"},
		{"/users/:id", map[string]string{}, "/users/"},
	}
	for _, tt := range tests {
		if got := Inject(tt.pattern, tt.params); got != tt.want {
			t.Errorf("Inject(%q) = %q, expected %q", tt.pattern, got, tt.want)
		}
	}
}

func TestInjectorCache(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Inject("/cache/:id", map[string]string{"id": "1"}); got != "/cache/1" {
				t.Errorf("unexpected %q", got)
			}
		}()
	}
	wg.Wait()
	if _, ok := injectors.Load("/cache/:id"); !ok {
		t.Error("expected injector to be cached")
	}
}

func newApp() *spur.App {
	app := spur.New()
	app.GET("/users/:id", func(c *spur.Ctx) *spur.Response {
		return c.OK(spur.M{"id": c.Param("id"), "q": c.RawQuery(), "h": c.Request.Header.Get("X-Token")})
	})
	app.POST("/echo", func(c *spur.Ctx) *spur.Response {
		b, _ := io.ReadAll(c.Request.Body)
		return c.Blob(http.StatusOK, c.Request.Header.Get("Content-Type"), b)
	})
	app.GET("/fail", func(c *spur.Ctx) *spur.Response { return c.BadRequest("nope") })
	return app
}

func TestClientInProcess(t *testing.T) {
	c := New("http://app/", WithHandler(newApp()), WithHeader("X-Token", "t1"))

	var out map[string]string
	err := c.JSON(context.Background(), http.MethodGet, "/users/:id", &Init{
		Params: map[string]string{"id": "9"},
		Query:  map[string]any{"full": true, "tag": []string{"a", "b"}},
	}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if out["id"] != "9" || out["q"] != "full&tag=a&tag=b" || out["h"] != "t1" {
		t.Errorf("unexpected response %v", out)
	}
}

func TestClientBodies(t *testing.T) {
	c := New("http://app", WithHandler(newApp()))
	tests := []struct {
		body     any
		wantBody string
		wantType string
	}{
		{"plain", "plain", "text/plain; charset=utf-8"},
		{[]byte{1, 2}, "\x01\x02", "application/octet-stream"},
		{url.Values{"a": {"1"}}, "a=1", "application/x-www-form-urlencoded"},
		{map[string]int{"n": 1}, `{"n":1}`, "application/json"},
		{42, "42", "application/json"},
	}
	for _, tt := range tests {
		res, err := c.Post(context.Background(), "/echo", &Init{Body: tt.body})
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if string(b) != tt.wantBody {
			t.Errorf("body %v: expected %q, got %q", tt.body, tt.wantBody, b)
		}
		if got := res.Header.Get("Content-Type"); got != tt.wantType {
			t.Errorf("body %v: expected content type %q, got %q", tt.body, tt.wantType, got)
		}
	}

	res, err := c.Post(context.Background(), "/echo", &Init{
		Body:   "x",
		Header: http.Header{"Content-Type": {"text/csv"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Content-Type"); got != "text/csv" {
		t.Errorf("expected explicit content type to win, got %q", got)
	}
}

func TestClientStatusError(t *testing.T) {
	c := New("http://app", WithHandler(newApp()))
	err := c.JSON(context.Background(), http.MethodGet, "/fail", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
}

func TestClientOverNetwork(t *testing.T) {
	srv := httptest.NewServer(newApp())
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	res, err := c.Get(context.Background(), "/users/:id", &Init{Params: map[string]string{"id": "3"}})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}
