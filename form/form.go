// Package form compiles form field declarations into parsers for
// application/x-www-form-urlencoded and multipart/form-data request bodies.
// Urlencoded bodies are scanned as raw text with the query package; multipart
// bodies are read through the standard multipart parser.
package form

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gomarten/spur/query"
)

// Type is the value type of a form field.
type Type uint8

const (
	TypeString Type = iota
	TypeNumber
	TypeBool
	TypeFile
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeFile:
		return "file"
	}
	return "unknown"
}

// Field declares one form key. Scalar string, number and file fields are
// required. Multiple fields collect every value; a multiple number field
// fails when any value is not a number. Bool fields report presence.
type Field struct {
	Name     string
	Type     Type
	Multiple bool
}

// DefaultMaxBytes bounds the body read by Parse when the schema sets none.
const DefaultMaxBytes = 10 << 20

// ErrTooLarge is returned when a body exceeds the schema limit.
var ErrTooLarge = errors.New("form: body too large")

// ErrContentType is returned for bodies that are not form encoded.
var ErrContentType = errors.New("form: unsupported content type")

// errMissing marks a required field that is absent or malformed.
var errMissing = errors.New("form: missing field")

// Values holds the fields of one parsed form.
type Values map[string]any

// String returns a scalar string field.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Number returns a scalar number field, or NaN.
func (v Values) Number(name string) float64 {
	if n, ok := v[name].(float64); ok {
		return n
	}
	return math.NaN()
}

// Bool returns a bool field.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Strings returns a multiple string field.
func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

// Numbers returns a multiple number field.
func (v Values) Numbers(name string) []float64 {
	n, _ := v[name].([]float64)
	return n
}

// File returns a scalar file field.
func (v Values) File(name string) *multipart.FileHeader {
	f, _ := v[name].(*multipart.FileHeader)
	return f
}

// Files returns a multiple file field.
func (v Values) Files(name string) []*multipart.FileHeader {
	f, _ := v[name].([]*multipart.FileHeader)
	return f
}

// Schema is a compiled set of form fields. It is safe for concurrent use.
type Schema struct {
	// MaxBytes bounds urlencoded bodies and the in-memory part of
	// multipart bodies.
	MaxBytes int64

	fields []Field
	steps  []step
}

type step struct {
	name      string
	text      func(raw string) (any, bool)
	multipart func(f *multipart.Form) (any, bool)
}

// Compile builds a form schema.
func Compile(fields ...Field) *Schema {
	s := &Schema{MaxBytes: DefaultMaxBytes, fields: append([]Field(nil), fields...)}
	for _, f := range fields {
		s.steps = append(s.steps, compileStep(f))
	}
	return s
}

func compileStep(f Field) step {
	st := step{name: f.Name}
	values := query.Strings(f.Name, 0)
	name := f.Name

	switch f.Type {
	case TypeBool:
		bare, first := query.Bool(name), query.String(name)
		st.text = func(raw string) (any, bool) {
			_, ok := first(raw)
			return ok || bare(raw), true
		}
		st.multipart = func(m *multipart.Form) (any, bool) {
			_, v := m.Value[name]
			_, fh := m.File[name]
			return v || fh, true
		}
	case TypeFile:
		st.text = func(string) (any, bool) {
			if f.Multiple {
				return []*multipart.FileHeader{}, true
			}
			return nil, false
		}
		st.multipart = func(m *multipart.Form) (any, bool) {
			files := m.File[name]
			if f.Multiple {
				if files == nil {
					files = []*multipart.FileHeader{}
				}
				return files, true
			}
			if len(files) == 0 {
				return nil, false
			}
			return files[0], true
		}
	case TypeNumber:
		st.text = func(raw string) (any, bool) { return numbers(values(raw), f.Multiple) }
		st.multipart = func(m *multipart.Form) (any, bool) { return numbers(m.Value[name], f.Multiple) }
	default:
		st.text = func(raw string) (any, bool) { return strs(values(raw), f.Multiple) }
		st.multipart = func(m *multipart.Form) (any, bool) { return strs(m.Value[name], f.Multiple) }
	}
	return st
}

func strs(vs []string, multiple bool) (any, bool) {
	if multiple {
		if vs == nil {
			vs = []string{}
		}
		return vs, true
	}
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

func numbers(vs []string, multiple bool) (any, bool) {
	if !multiple {
		if len(vs) == 0 {
			return nil, false
		}
		n := query.ParseNumber(vs[0])
		return n, !math.IsNaN(n)
	}
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		n := query.ParseNumber(v)
		if math.IsNaN(n) {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// Fields returns the declared fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Parse reads the request body and extracts every field. It returns nil
// when the body cannot be read or a required field is missing.
func (s *Schema) Parse(r *http.Request) Values {
	v, err := s.ParseRequest(r)
	if err != nil {
		return nil
	}
	return v
}

// ParseRequest is Parse with the reason for a failure.
func (s *Schema) ParseRequest(r *http.Request) (Values, error) {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentType, err)
	}
	switch ct {
	case "application/x-www-form-urlencoded":
		raw, err := s.readBody(r)
		if err != nil {
			return nil, err
		}
		return s.ParseText(raw)
	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(s.maxBytes()); err != nil {
				return nil, fmt.Errorf("form: parse multipart: %w", err)
			}
		}
		return s.run(func(st step) (any, bool) { return st.multipart(r.MultipartForm) })
	}
	return nil, fmt.Errorf("%w: %s", ErrContentType, ct)
}

// ParseText extracts every field from an urlencoded body. '+' is read as a
// space.
func (s *Schema) ParseText(raw string) (Values, error) {
	if strings.IndexByte(raw, '+') >= 0 {
		raw = strings.ReplaceAll(raw, "+", "%20")
	}
	return s.run(func(st step) (any, bool) { return st.text(raw) })
}

func (s *Schema) run(get func(step) (any, bool)) (Values, error) {
	out := make(Values, len(s.steps))
	for _, st := range s.steps {
		v, ok := get(st)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errMissing, st.name)
		}
		out[st.name] = v
	}
	return out, nil
}

func (s *Schema) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

func (s *Schema) readBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	limit := s.maxBytes()
	b, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("form: read body: %w", err)
	}
	if int64(len(b)) > limit {
		return "", ErrTooLarge
	}
	return string(b), nil
}
