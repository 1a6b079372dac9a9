package query

import (
	"strings"
	"unicode/utf8"
)

// Nibble tables: an ASCII hex digit maps to its value shifted into the high
// or low half of a byte. Anything else maps to 0xFF, which is not a valid
// UTF-8 byte, so a bad digit always drives the decoder into rejectState.
var (
	hexHigh = hexTable(4)
	hexLow  = hexTable(0)
)

func hexTable(shift uint) [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 0xFF
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = byte(c-'0') << shift
	}
	for c := 'a'; c <= 'f'; c++ {
		t[c] = byte(c-'a'+10) << shift
		t[c-'a'+'A'] = byte(c-'a'+10) << shift
	}
	return t
}

// byteClass sorts bytes into the twelve classes the UTF-8 automaton
// distinguishes.
var byteClass = func() [256]uint8 {
	var t [256]uint8
	fill := func(from, to int, class uint8) {
		for i := from; i <= to; i++ {
			t[i] = class
		}
	}
	fill(0x80, 0x8F, 1)
	fill(0x90, 0x9F, 2)
	fill(0xA0, 0xBF, 3)
	fill(0xC0, 0xC1, 4)
	fill(0xC2, 0xDF, 5)
	fill(0xE0, 0xE0, 6)
	fill(0xE1, 0xEC, 7)
	fill(0xED, 0xED, 8)
	fill(0xEE, 0xEF, 7)
	fill(0xF0, 0xF0, 10)
	fill(0xF1, 0xF3, 9)
	fill(0xF4, 0xF4, 11)
	fill(0xF5, 0xFF, 4)
	return t
}()

// classMask keeps the payload bits of a byte of the given class.
var classMask = [12]byte{0x7F, 0x3F, 0x3F, 0x3F, 0x00, 0x1F, 0x0F, 0x0F, 0x0F, 0x07, 0x07, 0x07}

// Automaton states are row offsets into transitions.
const (
	rejectState = 0
	acceptState = 12
)

var transitions = [108]uint8{
	// reject
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	// accept
	12, 0, 0, 0, 0, 24, 36, 48, 60, 72, 84, 96,
	// one continuation byte left
	0, 12, 12, 12, 0, 0, 0, 0, 0, 0, 0, 0,
	// after E0: A0..BF
	0, 0, 0, 24, 0, 0, 0, 0, 0, 0, 0, 0,
	// two continuation bytes left
	0, 24, 24, 24, 0, 0, 0, 0, 0, 0, 0, 0,
	// after ED: 80..9F
	0, 24, 24, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	// three continuation bytes left
	0, 48, 48, 48, 0, 0, 0, 0, 0, 0, 0, 0,
	// after F0: 90..BF
	0, 0, 48, 48, 0, 0, 0, 0, 0, 0, 0, 0,
	// after F4: 80..8F
	0, 48, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Decode returns s[start:end] with percent escapes resolved. Text without
// '%' is returned as is. A truncated escape, a bad hex digit or an invalid
// UTF-8 sequence makes Decode return the raw s[start:end] unchanged.
// '+' is left alone.
func Decode(s string, start, end int) string {
	raw := s[start:end]
	i := strings.IndexByte(raw, '%')
	if i < 0 {
		return raw
	}

	out := make([]byte, 0, len(raw))
	last, seq := 0, i
	state := acceptState
	var cp rune

	for {
		if i+2 >= len(raw) {
			return raw
		}
		b := hexHigh[raw[i+1]] | hexLow[raw[i+2]]
		class := byteClass[b]
		cp = cp<<6 | rune(b&classMask[class])
		state = int(transitions[state+int(class)])

		switch state {
		case rejectState:
			return raw
		case acceptState:
			out = append(out, raw[last:seq]...)
			out = utf8.AppendRune(out, cp)
			last = i + 3
			next := strings.IndexByte(raw[last:], '%')
			if next < 0 {
				return string(append(out, raw[last:]...))
			}
			i = last + next
			seq, cp = i, 0
		default:
			i += 3
			if i >= len(raw) || raw[i] != '%' {
				return raw
			}
		}
	}
}

// DecodeString decodes a whole string.
func DecodeString(s string) string {
	return Decode(s, 0, len(s))
}

// Escape percent-encodes s the way browsers encode a URI component:
// everything except ASCII letters, digits and -_.!~*'() is escaped.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			out = append(out, c)
			continue
		}
		out = append(out, '%', hex[c>>4], hex[c&0x0F])
	}
	return string(out)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
