// Package query compiles query-string field declarations into scanners that
// work on the raw query text. Keys are matched as percent-encoded literals
// bounded by '&' or the ends of the string; values are decoded only when
// they are extracted.
package query

import (
	"math"
	"strings"
	"sync/atomic"
)

// Type is the value type of a field.
type Type uint8

const (
	TypeString Type = iota
	TypeNumber
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// Field declares one query key. MaxItems 0 or 1 yields a scalar, 2 or more
// a slice holding at most MaxItems values, and a negative MaxItems a field
// that is always nil. Bool fields ignore MaxItems.
type Field struct {
	Name     string
	Type     Type
	MaxItems int
}

func (f Field) multi() bool { return f.Type != TypeBool && f.MaxItems >= 2 }
func (f Field) never() bool { return f.Type != TypeBool && f.MaxItems < 0 }

var rawValues atomic.Bool

// SetDecode turns percent-decoding of string values on or off for fields
// compiled afterwards. Decoding is on by default.
func SetDecode(on bool) {
	rawValues.Store(!on)
}

// Decoding reports whether newly compiled fields decode string values.
func Decoding() bool {
	return !rawValues.Load()
}

// key is a compiled literal key.
type key string

func valueKey(name string) key { return key(Escape(name) + "=") }
func flagKey(name string) key  { return key(Escape(name)) }

// find returns the offset just past the first occurrence of k at or after
// from that starts the string or follows '&'. It returns -1 if none.
func (k key) find(raw string, from int) int {
	for from < len(raw) {
		i := strings.Index(raw[from:], string(k))
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || raw[i-1] == '&' {
			return i + len(k)
		}
		from = i + 1
	}
	return -1
}

// present reports whether k appears as a whole pair, either bare or with an
// empty value.
func (k key) present(raw string) bool {
	from := 0
	for {
		j := k.find(raw, from)
		if j < 0 {
			return false
		}
		if j == len(raw) || raw[j] == '&' {
			return true
		}
		if raw[j] == '=' && (j+1 == len(raw) || raw[j+1] == '&') {
			return true
		}
		from = j - len(k) + 1
	}
}

// valueEnd returns the index of the '&' that ends the value starting at i,
// or len(raw).
func valueEnd(raw string, i int) int {
	if n := strings.IndexByte(raw[i:], '&'); n >= 0 {
		return i + n
	}
	return len(raw)
}

func extractor(decode bool) func(raw string, start, end int) string {
	if decode {
		return Decode
	}
	return func(raw string, start, end int) string { return raw[start:end] }
}

// Getter extracts one compiled field from a raw query string.
type Getter func(raw string) any

// CompileField returns a getter producing bool, string (nil when absent),
// float64 (NaN when absent or malformed), []string, []float64, or nil for
// fields with a negative MaxItems.
func CompileField(f Field) Getter {
	switch {
	case f.Type == TypeBool:
		get := Bool(f.Name)
		return func(raw string) any { return get(raw) }
	case f.never():
		return func(string) any { return nil }
	case f.multi() && f.Type == TypeNumber:
		get := Numbers(f.Name, f.MaxItems)
		return func(raw string) any { return get(raw) }
	case f.multi():
		get := Strings(f.Name, f.MaxItems)
		return func(raw string) any { return get(raw) }
	case f.Type == TypeNumber:
		get := Number(f.Name)
		return func(raw string) any { return get(raw) }
	}
	get := String(f.Name)
	return func(raw string) any {
		if v, ok := get(raw); ok {
			return v
		}
		return nil
	}
}

// Bool compiles a presence check for name.
func Bool(name string) func(raw string) bool {
	k := flagKey(name)
	return func(raw string) bool {
		return k.present(raw)
	}
}

// String compiles a getter for the first value of name. ok is false when
// the key is absent.
func String(name string) func(raw string) (v string, ok bool) {
	k, get := valueKey(name), extractor(Decoding())
	return func(raw string) (string, bool) {
		i := k.find(raw, 0)
		if i < 0 {
			return "", false
		}
		return get(raw, i, valueEnd(raw, i)), true
	}
}

// Number compiles a getter for the first value of name. It returns NaN when
// the key is absent or the value is not a number.
func Number(name string) func(raw string) float64 {
	k := valueKey(name)
	return func(raw string) float64 {
		i := k.find(raw, 0)
		if i < 0 {
			return math.NaN()
		}
		return ParseNumber(raw[i:valueEnd(raw, i)])
	}
}

// Strings compiles a getter for up to limit values of name, in order. A limit
// below 1 means no limit. The result is never nil.
func Strings(name string, limit int) func(raw string) []string {
	k, get := valueKey(name), extractor(Decoding())
	return func(raw string) []string {
		out := []string{}
		for i := k.find(raw, 0); i >= 0; {
			end := valueEnd(raw, i)
			out = append(out, get(raw, i, end))
			if len(out) == limit || end == len(raw) {
				break
			}
			i = k.find(raw, end+1)
		}
		return out
	}
}

// Numbers compiles a getter for up to limit numeric values of name. Values
// that are not numbers are skipped and do not count towards limit. A limit
// below 1 means no limit. The result is never nil.
func Numbers(name string, limit int) func(raw string) []float64 {
	k := valueKey(name)
	return func(raw string) []float64 {
		out := []float64{}
		for i := k.find(raw, 0); i >= 0; {
			end := valueEnd(raw, i)
			if v := ParseNumber(raw[i:end]); !math.IsNaN(v) {
				out = append(out, v)
				if len(out) == limit {
					break
				}
			}
			if end == len(raw) {
				break
			}
			i = k.find(raw, end+1)
		}
		return out
	}
}
