package query

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"%45%76%65%6E%74", "Event"},
		{"plain", "plain"},
		{"a+b", "a+b"},
		{"x%20y", "x y"},
		{"J%C3%B6rg", "Jörg"},
		{"%e2%82%ac", "€"},
		{"%F0%9F%98%80!", "😀!"},
		{"abc%4", "abc%4"},
		{"abc%", "abc%"},
		{"%ZZ", "%ZZ"},
		{"%C3", "%C3"},
		{"%C3x", "%C3x"},
		{"%C0%80", "%C0%80"},
		{"%ED%A0%80", "%ED%A0%80"},
		{"%80", "%80"},
		{"ok%41%", "ok%41%"},
	}
	for _, tt := range tests {
		if got := DecodeString(tt.in); got != tt.want {
			t.Errorf("DecodeString(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeBounds(t *testing.T) {
	s := "a=%41%42&b=%43"
	if got := Decode(s, 2, 8); got != "AB" {
		t.Errorf("expected AB, got %q", got)
	}
	// A truncated escape inside the bounds is not completed from beyond them.
	if got := Decode(s, 2, 7); got != "%41%4" {
		t.Errorf("expected raw text, got %q", got)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"a b", "a%20b"},
		{"a[]", "a%5B%5D"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"é", "%C3%A9"},
		{"a&b=c", "a%26b%3Dc"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, expected %q", tt.in, got, tt.want)
		}
		if got := DecodeString(Escape(tt.in)); got != tt.in {
			t.Errorf("round trip of %q gave %q", tt.in, got)
		}
	}
}
