package sentiment

import "log"

// Select chooses the analyzer variant once at startup. The operator flag
// wins: when enabled is false the stub is returned even if a model bundle is
// present. A load failure is recovered locally — logged, then the stub — so
// the moderation pipeline starts regardless.
func Select(enabled bool, bundleDir string, seqLen int) Analyzer {
	if !enabled {
		log.Printf("[sentiment] AI analysis disabled by configuration")
		return Disabled()
	}

	model, err := LoadModel(bundleDir, seqLen)
	if err != nil {
		log.Printf("[sentiment] model unavailable, continuing without AI analysis: %v", err)
		return Disabled()
	}

	log.Printf("[sentiment] model loaded from %s (seq_len=%d)", bundleDir, seqLen)
	return model
}
