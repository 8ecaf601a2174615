// Package textnorm canonicalizes raw message text before analysis. All
// downstream detectors (pattern scoring, sentiment, word counting) operate on
// the normalized form, so Normalize must be deterministic: the same input
// always yields the same output.
package textnorm

import (
	"regexp"
	"strings"
)

// urlPattern matches http/https URL-shaped substrings with a permissive
// path/query tail. Matched spans are removed entirely, not replaced with a
// placeholder, so a link-only message normalizes to the empty string.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Normalize lowercases text, strips URLs, replaces every rune that is not an
// ASCII letter, digit, or whitespace with a space, collapses runs of
// whitespace to a single space, and trims the ends.
//
// There is no error path: empty or whitespace-only input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ToLower(text)
	s = urlPattern.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			// Covers whitespace too; runs collapse below.
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// WordCount returns the number of space-separated words in normalized text.
func WordCount(normalized string) int {
	if normalized == "" {
		return 0
	}
	return len(strings.Fields(normalized))
}
