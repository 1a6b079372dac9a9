package query

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts raw query text to a number the way browsers coerce
// strings: surrounding whitespace is ignored, an empty value is 0, 0x, 0o
// and 0b prefixes select a radix, and Infinity is accepted with an optional
// sign. Anything else that is not a decimal literal is NaN. The text is not
// percent-decoded first.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadix(s[2:], base)
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case '0' <= c && c <= '9', c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return math.NaN()
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

func parseRadix(digits string, base int) float64 {
	if digits == "" || digits[0] == '+' || digits[0] == '-' || strings.IndexByte(digits, '_') >= 0 {
		return math.NaN()
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err == nil {
		return float64(v)
	}
	if !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	// Too wide for uint64: accumulate in floating point.
	var f float64
	for i := 0; i < len(digits); i++ {
		d, err := strconv.ParseUint(digits[i:i+1], base, 8)
		if err != nil {
			return math.NaN()
		}
		f = f*float64(base) + float64(d)
	}
	return f
}
