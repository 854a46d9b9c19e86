// Package utils provides shared utilities for text, math, files, and logging.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate cuts s to at most maxLen runes and appends "..." when it cuts.
// A maxLen of 0 or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the whitespace-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if maxWords <= 0 || len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
