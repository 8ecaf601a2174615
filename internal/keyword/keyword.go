// Package keyword implements the operator-maintained filter keyword set:
// matching, the built-in default list, the PostgreSQL-backed store with
// soft-delete semantics, and a snapshot cache for lock-free concurrent reads.
package keyword

import (
	"strings"

	"github.com/copyguard/moderation/internal/textnorm"
)

// DefaultKeywords is the built-in copyright keyword list. It is used whenever
// the active operator set is empty: deleting every keyword reverts filtering
// to these defaults, it never disables filtering. That is operator policy,
// not an optimization.
var DefaultKeywords = []string{
	"pirated", "illegal download", "torrent", "cracked", "leaked",
	"copyright infringement", "dmca", "unauthorized", "bootleg",
	"cam rip", "screener", "dvdrip", "brrip", "webrip",
	"movie leak", "free movie", "download movie", "watch free",
}

// EffectiveSet resolves the keyword set to match against: the active operator
// set when non-empty, otherwise the built-in defaults. It is a pure function
// of its input; stored state is never mutated to fall back.
func EffectiveSet(active []string) []string {
	if len(active) > 0 {
		return active
	}
	return DefaultKeywords
}

// Match returns the keywords found in text, in keyword-set iteration order,
// duplicates suppressed. A keyword matches on case-insensitive substring
// containment; multi-word keywords additionally match when their words
// appear in order (with gaps) in the normalized text, so "download movie"
// catches "download the latest movie". This path needs no AI capability and
// always functions.
func Match(text string, keywords []string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}

	lower := strings.ToLower(text)
	normWords := strings.Fields(textnorm.Normalize(text))

	var matched []string
	seen := make(map[string]struct{}, len(keywords))

	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		if strings.Contains(lower, k) || phraseInOrder(normWords, strings.Fields(k)) {
			seen[k] = struct{}{}
			matched = append(matched, kw)
		}
	}

	return matched
}

// phraseInOrder reports whether every word of phrase appears in words in
// order, with arbitrary gaps between them. Single-word phrases are already
// covered by the substring test, so they never match here.
func phraseInOrder(words, phrase []string) bool {
	if len(phrase) < 2 {
		return false
	}

	next := 0
	for _, w := range words {
		if w == phrase[next] {
			next++
			if next == len(phrase) {
				return true
			}
		}
	}
	return false
}
