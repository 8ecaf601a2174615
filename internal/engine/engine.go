// Package engine evaluates messages for likely copyright infringement. It
// combines deterministic keyword matching with a heuristic risk score into a
// single filter/pass verdict.
//
// Every evaluation is independent and side-effect free: the engine holds no
// per-message state, so concurrent evaluations need no locking. Acting on a
// verdict (deleting the message, counting detections) belongs to the caller.
package engine

import (
	"fmt"
	"strings"

	"github.com/copyguard/moderation/internal/keyword"
	"github.com/copyguard/moderation/internal/risk"
	"github.com/copyguard/moderation/internal/sentiment"
	"github.com/copyguard/moderation/internal/textnorm"
)

// maxReasonKeywords caps how many matched keywords are quoted in the verdict
// reasons.
const maxReasonKeywords = 3

// Verdict is the engine's decision for one message, immutable once produced.
// It is the sole contract consumed by the action executor.
type Verdict struct {
	ShouldFilter    bool     `json:"should_filter"`
	MatchedKeywords []string `json:"matched_keywords"`
	RiskScore       float64  `json:"risk_score"`
	Reasons         []string `json:"reasons"`

	// SentimentAvailable reports whether a real sentiment estimator
	// contributed to the score. Exposed for operator visibility only; the
	// decision rule does not depend on it.
	SentimentAvailable bool `json:"sentiment_available"`
}

// Engine runs the moderation pipeline. The sentiment analyzer variant and the
// threshold are fixed at construction; both come from validated configuration.
type Engine struct {
	analyzer  sentiment.Analyzer
	threshold float64
}

// New creates an engine with the given analyzer variant and filter threshold.
// The threshold must already be validated to [0, 1] at configuration load.
func New(analyzer sentiment.Analyzer, threshold float64) *Engine {
	if analyzer == nil {
		analyzer = sentiment.Disabled()
	}
	return &Engine{analyzer: analyzer, threshold: threshold}
}

// Threshold returns the configured filter threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// SentimentAvailable reports whether the configured analyzer is a real
// estimator.
func (e *Engine) SentimentAvailable() bool { return e.analyzer.Available() }

// Evaluate runs the full pipeline on one raw message: normalize, match
// keywords (falling back to the default list when activeKeywords is empty),
// score patterns and sentiment, aggregate, decide. It never fails for any
// string input; empty input yields a pass verdict with score 0.
func (e *Engine) Evaluate(text string, activeKeywords []string) Verdict {
	normalized := textnorm.Normalize(text)

	matched := keyword.Match(text, keyword.EffectiveSet(activeKeywords))

	sig := risk.Signal{
		PatternMatches:    risk.ScorePatterns(normalized),
		SentimentPolarity: e.analyzer.Polarity(normalized),
		WordCount:         textnorm.WordCount(normalized),
	}
	score := risk.Aggregate(sig, risk.PatternCount())

	verdict := decide(matched, score, e.threshold)
	verdict.SentimentAvailable = e.analyzer.Available()
	return verdict
}

// decide applies the policy rule: either signal alone is sufficient to
// filter (logical OR). Reasons quote up to the first three matched keywords
// in match order, plus the numeric score when the score branch fired.
func decide(matched []string, score float64, threshold float64) Verdict {
	v := Verdict{
		MatchedKeywords: matched,
		RiskScore:       score,
	}

	if len(matched) > 0 {
		v.ShouldFilter = true
		quoted := matched
		if len(quoted) > maxReasonKeywords {
			quoted = quoted[:maxReasonKeywords]
		}
		v.Reasons = append(v.Reasons, "keywords: "+strings.Join(quoted, ", "))
	}

	if score >= threshold {
		v.ShouldFilter = true
		v.Reasons = append(v.Reasons, fmt.Sprintf("risk score: %.2f", score))
	}

	return v
}
