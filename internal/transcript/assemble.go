// Package transcript assembles recognized segments and applies deterministic corrections.
package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Assemble joins recognized segments with single spaces and collapses whitespace.
func Assemble(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	joined := strings.Join(segments, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// CapitalizeFirst upper-cases the first rune and leaves the rest untouched.
func CapitalizeFirst(text string) string {
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	upper := unicode.ToUpper(r)
	if upper == r {
		return text
	}
	return string(upper) + text[size:]
}
