package risk

// Signal carries the independent detection signals for one message. It is
// ephemeral: built per evaluation and consumed immediately by Aggregate.
type Signal struct {
	// PatternMatches is the number of fixed phrase patterns that matched
	// (see ScorePatterns), at most PatternCount().
	PatternMatches int

	// SentimentPolarity is the estimated polarity of the normalized text in
	// [-1, 1]. Neutral (0) when the sentiment capability is unavailable.
	SentimentPolarity float64

	// WordCount is the number of words in the normalized text.
	WordCount int
}

// Aggregate combines the signals into a risk score in [0, 1]. The formula is
// a fixed weighted sum, each term clamped before summation:
//
//	pattern term   = (patternMatches / totalPatterns) * 0.4
//	sentiment term = 0.2 if polarity < -0.3
//	verbosity term = 0.2 if wordCount > 20 and patternMatches > 0
//	density term   = min((patternMatches / max(wordCount, 1)) * 2, 0.3)
//
// The final sum is clamped to 1.0. Degenerate input (empty text, zero
// signals) yields 0.0, never an error.
func Aggregate(sig Signal, totalPatterns int) float64 {
	if totalPatterns <= 0 {
		return 0
	}

	score := (float64(sig.PatternMatches) / float64(totalPatterns)) * 0.4

	if sig.SentimentPolarity < -0.3 {
		score += 0.2
	}

	if sig.WordCount > 20 && sig.PatternMatches > 0 {
		score += 0.2
	}

	words := sig.WordCount
	if words < 1 {
		words = 1
	}
	density := (float64(sig.PatternMatches) / float64(words)) * 2
	if density > 0.3 {
		density = 0.3
	}
	score += density

	if score > 1.0 {
		score = 1.0
	}
	return score
}
