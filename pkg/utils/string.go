// Package utils provides common utility functions.
package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateRunes cuts str to at most maxRunes characters. Column limits in the
// news table count characters, not bytes, so multi-byte text is never split.
func TruncateRunes(str string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	if utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	n := 0
	for i := range str {
		if n == maxRunes {
			return str[:i]
		}
		n++
	}

	return str
}

// BaseName returns the part of a resource identifier before the first dot.
func BaseName(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}

	return id
}
