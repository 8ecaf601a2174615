package engine

import (
	"strings"
	"testing"

	"github.com/copyguard/moderation/internal/sentiment"
)

// fixedAnalyzer returns a constant polarity and reports itself available.
type fixedAnalyzer struct {
	polarity float64
}

func (f fixedAnalyzer) Polarity(string) float64 { return f.polarity }
func (f fixedAnalyzer) Available() bool         { return true }

func TestEvaluate_KeywordAloneFilters(t *testing.T) {
	e := New(sentiment.Disabled(), 0.7)

	v := e.Evaluate("sharing a dmca notice", nil)
	if !v.ShouldFilter {
		t.Fatal("keyword match did not filter")
	}
	if len(v.MatchedKeywords) == 0 {
		t.Fatal("expected matched keywords")
	}
	// Keyword branch must filter regardless of score.
	if v.RiskScore >= 0.7 {
		t.Logf("note: score %v also crossed threshold", v.RiskScore)
	}
}

func TestEvaluate_ScoreAloneFilters(t *testing.T) {
	// Threshold 0 means any evaluation crosses the score branch, including
	// ones with no keyword hit.
	e := New(sentiment.Disabled(), 0)

	v := e.Evaluate("hello there", []string{"unrelatedkeyword"})
	if len(v.MatchedKeywords) != 0 {
		t.Fatalf("unexpected keyword matches: %v", v.MatchedKeywords)
	}
	if !v.ShouldFilter {
		t.Fatal("score >= threshold did not filter")
	}
	found := false
	for _, r := range v.Reasons {
		if strings.HasPrefix(r, "risk score:") {
			found = true
		}
	}
	if !found {
		t.Errorf("score reason missing from %v", v.Reasons)
	}
}

func TestEvaluate_CleanMessagePasses(t *testing.T) {
	e := New(sentiment.Disabled(), 0.7)

	v := e.Evaluate("Hello, how are you today?", nil)
	if v.ShouldFilter {
		t.Fatalf("clean message filtered: %+v", v)
	}
	if len(v.MatchedKeywords) != 0 {
		t.Errorf("MatchedKeywords = %v, want none", v.MatchedKeywords)
	}
	if v.RiskScore > 0.05 {
		t.Errorf("RiskScore = %v, want near 0", v.RiskScore)
	}
	if len(v.Reasons) != 0 {
		t.Errorf("Reasons = %v, want none", v.Reasons)
	}
}

func TestEvaluate_DownloadScenario(t *testing.T) {
	e := New(sentiment.Disabled(), 0.7)

	v := e.Evaluate("Download the latest movie for free here", nil)
	if !v.ShouldFilter {
		t.Fatalf("expected filter verdict, got %+v", v)
	}

	found := false
	for _, kw := range v.MatchedKeywords {
		if kw == "download movie" || kw == "free movie" {
			found = true
		}
	}
	if !found {
		t.Errorf("MatchedKeywords = %v, want a download/free movie hit from the default list", v.MatchedKeywords)
	}
}

func TestEvaluate_EmptyInput(t *testing.T) {
	e := New(sentiment.Disabled(), 0.7)

	v := e.Evaluate("", nil)
	if v.ShouldFilter {
		t.Fatal("empty input filtered")
	}
	if v.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", v.RiskScore)
	}
	if len(v.MatchedKeywords) != 0 || len(v.Reasons) != 0 {
		t.Errorf("empty input produced matches/reasons: %+v", v)
	}
}

func TestEvaluate_ScoreAlwaysBounded(t *testing.T) {
	e := New(fixedAnalyzer{polarity: -1}, 0.7)

	inputs := []string{
		"",
		"hello",
		strings.Repeat("download pirated movie torrent magnet link watch free hd full ", 5000),
	}
	for _, in := range inputs {
		v := e.Evaluate(in, nil)
		if v.RiskScore < 0 || v.RiskScore > 1 {
			t.Errorf("RiskScore = %v for input length %d, out of [0,1]", v.RiskScore, len(in))
		}
	}
}

// TestEvaluate_DisabledEqualsNeutral verifies the hard requirement that a
// disabled sentiment capability yields the same verdict as a neutral (0.0)
// polarity estimate, for every decision-relevant field.
func TestEvaluate_DisabledEqualsNeutral(t *testing.T) {
	disabled := New(sentiment.Disabled(), 0.7)
	neutral := New(fixedAnalyzer{polarity: 0}, 0.7)

	inputs := []string{
		"",
		"Hello, how are you today?",
		"Download the latest movie for free here",
		strings.Repeat("watch free hd full movie torrent link ", 10),
	}

	for _, in := range inputs {
		a := disabled.Evaluate(in, nil)
		b := neutral.Evaluate(in, nil)

		if a.ShouldFilter != b.ShouldFilter || a.RiskScore != b.RiskScore {
			t.Errorf("input %q: disabled verdict (%v, %v) differs from neutral (%v, %v)",
				in, a.ShouldFilter, a.RiskScore, b.ShouldFilter, b.RiskScore)
		}
		if a.SentimentAvailable {
			t.Error("disabled analyzer reported available")
		}
		if !b.SentimentAvailable {
			t.Error("neutral fixed analyzer reported unavailable")
		}
	}
}

func TestEvaluate_NegativeSentimentRaisesScore(t *testing.T) {
	neg := New(fixedAnalyzer{polarity: -0.8}, 0.7)
	neu := New(fixedAnalyzer{polarity: 0}, 0.7)

	// Needs at least one pattern-free path check and one pattern path check.
	input := "download the new movie today please everyone"

	a := neg.Evaluate(input, []string{"unrelated"})
	b := neu.Evaluate(input, []string{"unrelated"})

	if a.RiskScore <= b.RiskScore {
		t.Errorf("negative sentiment score %v not above neutral %v", a.RiskScore, b.RiskScore)
	}
}

func TestDecide_ReasonsCapAtThreeKeywords(t *testing.T) {
	matched := []string{"a1", "b2", "c3", "d4", "e5"}
	v := decide(matched, 0.1, 0.7)

	if !v.ShouldFilter {
		t.Fatal("expected filter")
	}
	if len(v.Reasons) != 1 {
		t.Fatalf("Reasons = %v, want single keyword reason", v.Reasons)
	}
	want := "keywords: a1, b2, c3"
	if v.Reasons[0] != want {
		t.Errorf("Reasons[0] = %q, want %q", v.Reasons[0], want)
	}
}

func TestDecide_BothBranches(t *testing.T) {
	v := decide([]string{"torrent"}, 0.9, 0.7)
	if !v.ShouldFilter {
		t.Fatal("expected filter")
	}
	if len(v.Reasons) != 2 {
		t.Fatalf("Reasons = %v, want keyword and score reasons", v.Reasons)
	}
}

func TestDecide_ThresholdInclusive(t *testing.T) {
	v := decide(nil, 0.7, 0.7)
	if !v.ShouldFilter {
		t.Error("score equal to threshold did not filter")
	}

	v = decide(nil, 0.6999, 0.7)
	if v.ShouldFilter {
		t.Error("score below threshold filtered")
	}
}

func TestNew_NilAnalyzerDefaultsToDisabled(t *testing.T) {
	e := New(nil, 0.7)
	if e.SentimentAvailable() {
		t.Error("nil analyzer reported available")
	}
	v := e.Evaluate("hello", nil)
	if v.ShouldFilter {
		t.Errorf("unexpected filter: %+v", v)
	}
}
