package query

import "math"

// Values holds the fields of one parsed query string.
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

// Strings returns a multi-valued string field.
func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

// Numbers returns a multi-valued number field.
func (v Values) Numbers(name string) []float64 {
	n, _ := v[name].([]float64)
	return n
}

// Schema is a compiled set of fields. It is safe for concurrent use.
type Schema struct {
	fields []Field
	// required runs first so a missing field fails before any other work.
	required []step
	rest     []step
}

type step struct {
	name string
	// get reports ok=false when the field is required and missing.
	get func(raw string) (any, bool)
}

// Compile builds a schema. Scalar string and number fields are required:
// Parse fails when one is missing, and a scalar number also fails when its
// value is not a number. Bool fields and slices never fail.
func Compile(fields ...Field) *Schema {
	s := &Schema{fields: append([]Field(nil), fields...)}
	for _, f := range fields {
		switch {
		case f.Type == TypeBool:
			get := Bool(f.Name)
			s.rest = append(s.rest, step{f.Name, func(raw string) (any, bool) {
				return get(raw), true
			}})
		case f.never():
			s.rest = append(s.rest, step{f.Name, func(string) (any, bool) {
				return nil, true
			}})
		case f.multi():
			get := CompileField(f)
			s.rest = append(s.rest, step{f.Name, func(raw string) (any, bool) {
				return get(raw), true
			}})
		case f.Type == TypeNumber:
			get := Number(f.Name)
			s.required = append(s.required, step{f.Name, func(raw string) (any, bool) {
				n := get(raw)
				return n, !math.IsNaN(n)
			}})
		default:
			get := String(f.Name)
			s.required = append(s.required, step{f.Name, func(raw string) (any, bool) {
				return get(raw)
			}})
		}
	}
	return s
}

// Fields returns the declared fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Parse extracts every field from raw, the query text without its leading
// '?'. It returns nil when a required field is missing or malformed.
func (s *Schema) Parse(raw string) Values {
	out := make(Values, len(s.fields))
	for _, st := range s.required {
		v, ok := st.get(raw)
		if !ok {
			return nil
		}
		out[st.name] = v
	}
	for _, st := range s.rest {
		v, _ := st.get(raw)
		out[st.name] = v
	}
	return out
}
