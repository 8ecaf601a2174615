// Package risk implements the heuristic copyright-risk scoring pipeline:
// a fixed set of phrase patterns matched against normalized text, and an
// aggregator that combines pattern, sentiment, and length signals into a
// single bounded score.
package risk

import "regexp"

// phrasePatterns is the fixed, build-time set of copyright-risk phrase
// patterns. It is matched against normalized text (lowercase, no URLs or
// punctuation), so the expressions stay simple and RE2-safe. The set and the
// weighting in Aggregate are hand-tuned policy; changing either changes
// moderation behavior and needs separate validation, not a quiet edit.
var phrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`download.*movie`),
	regexp.MustCompile(`watch.*free`),
	regexp.MustCompile(`pirat|crack|leak`),
	regexp.MustCompile(`(torrent|magnet|direct).*link`),
	regexp.MustCompile(`(hd|full).*movie.*free`),
}

// PatternCount returns the size of the fixed pattern set. It is the
// denominator of the pattern term in Aggregate.
func PatternCount() int {
	return len(phrasePatterns)
}

// ScorePatterns counts how many of the fixed phrase patterns match anywhere
// in the normalized text. Each pattern contributes at most 1 regardless of
// how many times it matches within the message.
func ScorePatterns(normalized string) int {
	if normalized == "" {
		return 0
	}

	matches := 0
	for _, p := range phrasePatterns {
		if p.MatchString(normalized) {
			matches++
		}
	}
	return matches
}
