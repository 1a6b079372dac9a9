package client

import (
	"net/url"
	"strings"
	"sync"
)

// syncMap is a typed sync.Map.
type syncMap[K comparable, V any] struct {
	m sync.Map
}

func (sm *syncMap[K, V]) Load(key K) (V, bool) {
	v, ok := sm.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (sm *syncMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	v, loaded := sm.m.LoadOrStore(key, value)
	return v.(V), loaded
}

// Injector fills the parameters of a route pattern.
type Injector func(params map[string]string) string

var injectors syncMap[string, Injector]

// Inject fills ":name" segments of pattern from params and replaces a
// trailing "*" with params["*"]. Parameter values are path-escaped; the
// wildcard value is inserted as is. Compiled patterns are cached.
func Inject(pattern string, params map[string]string) string {
	return InjectorFor(pattern)(params)
}

// InjectorFor returns the cached injector for pattern, compiling it on
// first use.
func InjectorFor(pattern string) Injector {
	if fn, ok := injectors.Load(pattern); ok {
		return fn
	}
	fn, _ := injectors.LoadOrStore(pattern, compileInjector(pattern))
	return fn
}

// part is either a literal or a parameter name.
type part struct {
	text  string
	param bool
}

func compileInjector(pattern string) Injector {
	var parts []part
	wildcard := strings.HasSuffix(pattern, "*")
	if wildcard {
		pattern = pattern[:len(pattern)-1]
	}

	start := 0
	for {
		i := strings.IndexByte(pattern[start:], ':')
		if i < 0 {
			break
		}
		i += start
		if i > start {
			parts = append(parts, part{text: pattern[start:i]})
		}
		end := strings.IndexByte(pattern[i:], '/')
		if end < 0 {
			end = len(pattern)
		} else {
			end += i
		}
		parts = append(parts, part{text: pattern[i+1 : end], param: true})
		start = end
	}
	if start < len(pattern) {
		parts = append(parts, part{text: pattern[start:]})
	}

	if len(parts) == 1 && !parts[0].param && !wildcard {
		lit := parts[0].text
		return func(map[string]string) string { return lit }
	}
	return func(params map[string]string) string {
		var b strings.Builder
		for _, p := range parts {
			if p.param {
				b.WriteString(url.PathEscape(params[p.text]))
			} else {
				b.WriteString(p.text)
			}
		}
		if wildcard {
			b.WriteString(params["*"])
		}
		return b.String()
	}
}
