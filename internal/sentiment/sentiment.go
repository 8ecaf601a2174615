// Package sentiment provides an optional polarity estimator for normalized
// message text. The capability has two interchangeable variants selected once
// at startup: a real ONNX-backed model and a disabled stub. Callers never
// branch on model internals; they check Available() and treat the polarity as
// a weak signal either way. A missing or broken model must never block
// message processing.
package sentiment

// Analyzer estimates the sentiment polarity of normalized text.
type Analyzer interface {
	// Polarity returns a value in [-1, 1]: negative values indicate negative
	// sentiment. It never fails; a degraded backend returns neutral 0.
	Polarity(text string) float64

	// Available reports whether a real estimator backs this analyzer.
	// The disabled variant returns false and always-neutral polarity.
	Available() bool
}

// Disabled returns the stub analyzer used when the model is missing, failed
// to load, or the operator switched AI analysis off. It scores every input
// as neutral so the rest of the risk formula behaves exactly as if the
// sentiment term never fired.
func Disabled() Analyzer {
	return disabledAnalyzer{}
}

type disabledAnalyzer struct{}

func (disabledAnalyzer) Polarity(string) float64 { return 0 }

func (disabledAnalyzer) Available() bool { return false }
