package query

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"", 0},
		{"  ", 0},
		{" 12 ", 12},
		{"+3", 3},
		{"-0.25", -0.25},
		{".5", 0.5},
		{"5.", 5},
		{"1e-2", 0.01},
		{"0x1F", 31},
		{"0XfF", 255},
		{"0o17", 15},
		{"0b101", 5},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e400", math.Inf(1)},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestParseNumberNaN(t *testing.T) {
	for _, in := range []string{"abc", "12px", "1_000", "0x", "-0x10", "0xZ", "NaN", "Inf", "1e", "1.2.3", "+-1", "0x1p3"} {
		if got := ParseNumber(in); !math.IsNaN(got) {
			t.Errorf("ParseNumber(%q) = %v, expected NaN", in, got)
		}
	}
}
