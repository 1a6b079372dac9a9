package form

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

func urlencoded(body string) *http.Request {
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, values map[string][]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	for k, content := range files {
		fw, err := w.CreateFormFile(k, k+".txt")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestParseURLEncoded(t *testing.T) {
	s := Compile(
		Field{Name: "name"},
		Field{Name: "age", Type: TypeNumber},
		Field{Name: "darkMode", Type: TypeBool},
		Field{Name: "ids", Type: TypeNumber, Multiple: true},
	)

	v := s.Parse(urlencoded("name=dave+smith&age=18&darkMode=&ids=5&ids=6"))
	if v == nil {
		t.Fatal("expected values")
	}
	if v.String("name") != "dave smith" {
		t.Errorf("expected 'dave smith', got %q", v.String("name"))
	}
	if v.Number("age") != 18 {
		t.Errorf("expected 18, got %v", v.Number("age"))
	}
	if !v.Bool("darkMode") {
		t.Error("expected darkMode to be true")
	}
	if !slices.Equal(v.Numbers("ids"), []float64{5, 6}) {
		t.Errorf("expected [5 6], got %v", v.Numbers("ids"))
	}
}

func TestParseURLEncodedFailures(t *testing.T) {
	s := Compile(
		Field{Name: "name"},
		Field{Name: "ids", Type: TypeNumber, Multiple: true},
	)
	tests := []struct {
		name string
		body string
	}{
		{"missing scalar", "ids=1"},
		{"bad number in list", "name=a&ids=1&ids=x"},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := s.Parse(urlencoded(tt.body)); v != nil {
				t.Errorf("expected nil, got %v", v)
			}
		})
	}

	if v := s.Parse(urlencoded("name=a")); v == nil || len(v.Numbers("ids")) != 0 {
		t.Errorf("expected empty ids, got %v", v)
	}
}

func TestParseTooLarge(t *testing.T) {
	s := Compile(Field{Name: "a"})
	s.MaxBytes = 8
	_, err := s.ParseRequest(urlencoded("a=0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestParseContentType(t *testing.T) {
	s := Compile(Field{Name: "a"})
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	if _, err := s.ParseRequest(req); !errors.Is(err, ErrContentType) {
		t.Errorf("expected ErrContentType, got %v", err)
	}
}

func TestParseMultipart(t *testing.T) {
	s := Compile(
		Field{Name: "title"},
		Field{Name: "count", Type: TypeNumber},
		Field{Name: "tags", Multiple: true},
		Field{Name: "public", Type: TypeBool},
		Field{Name: "upload", Type: TypeFile},
	)
	req := multipartRequest(t,
		map[string][]string{"title": {"report"}, "count": {"3"}, "tags": {"a", "b"}},
		map[string]string{"upload": "hello"},
	)
	v := s.Parse(req)
	if v == nil {
		t.Fatal("expected values")
	}
	if v.String("title") != "report" || v.Number("count") != 3 {
		t.Errorf("unexpected scalars %v", v)
	}
	if !slices.Equal(v.Strings("tags"), []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", v.Strings("tags"))
	}
	if v.Bool("public") {
		t.Error("expected public to be false")
	}
	fh := v.File("upload")
	if fh == nil || fh.Filename != "upload.txt" {
		t.Fatalf("unexpected file %+v", fh)
	}
	f, err := fh.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	b, _ := io.ReadAll(f)
	if string(b) != "hello" {
		t.Errorf("expected file content hello, got %q", b)
	}
}

func TestParseMultipartMissingFile(t *testing.T) {
	s := Compile(Field{Name: "upload", Type: TypeFile})
	req := multipartRequest(t, map[string][]string{"other": {"x"}}, nil)
	if v := s.Parse(req); v != nil {
		t.Errorf("expected nil, got %v", v)
	}
}

func TestTypeNames(t *testing.T) {
	for typ, want := range map[Type]string{TypeString: "string", TypeNumber: "number", TypeBool: "bool", TypeFile: "file", Type(9): "unknown"} {
		if got := typ.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
