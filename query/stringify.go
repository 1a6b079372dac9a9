package query

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Stringify encodes params as a query string with a leading '?', or ""
// when nothing is encoded. Keys are sorted. true encodes as a bare key and
// false is skipped; slices repeat the key once per element; nil values are
// skipped.
func Stringify(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		appendParam(&b, Escape(k), params[k])
	}
	if b.Len() == 0 {
		return ""
	}
	return "?" + b.String()
}

func appendParam(b *strings.Builder, key string, v any) {
	switch v := v.(type) {
	case nil:
	case bool:
		if v {
			sep(b)
			b.WriteString(key)
		}
	case string:
		pair(b, key, v)
	case []string:
		for _, s := range v {
			pair(b, key, s)
		}
	case []float64:
		for _, n := range v {
			pair(b, key, formatNumber(n))
		}
	case []int:
		for _, n := range v {
			pair(b, key, strconv.Itoa(n))
		}
	case []any:
		for _, e := range v {
			appendParam(b, key, e)
		}
	case float64:
		pair(b, key, formatNumber(v))
	case int:
		pair(b, key, strconv.Itoa(v))
	case int64:
		pair(b, key, strconv.FormatInt(v, 10))
	default:
		pair(b, key, fmt.Sprint(v))
	}
}

func sep(b *strings.Builder) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
}

func pair(b *strings.Builder, key, value string) {
	sep(b)
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(Escape(value))
}

// formatNumber writes n the way ParseNumber reads it back.
func formatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
