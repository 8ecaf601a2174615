package audit

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short stays", "pirated copy here", "pirated copy here"},
		{"empty", "", ""},
		{"exactly at limit", strings.Repeat("a", previewLimit), strings.Repeat("a", previewLimit)},
		{"over limit", strings.Repeat("a", previewLimit+50), strings.Repeat("a", previewLimit)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncatePreview(tt.input); got != tt.want {
				t.Errorf("truncatePreview length %d, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestTruncatePreview_NoSplitRune(t *testing.T) {
	// Fill up to just under the limit, then add multi-byte runes that
	// straddle the boundary.
	input := strings.Repeat("a", previewLimit-1) + "日本語"
	got := truncatePreview(input)

	if len(got) > previewLimit {
		t.Fatalf("preview %d bytes, over limit %d", len(got), previewLimit)
	}
	if !utf8.ValidString(got) {
		t.Errorf("preview is not valid UTF-8: %q", got)
	}
}

func TestRiskScoreParam(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0, 0},
		{1, 1},
		{-0.2, 0},
		{1.5, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := riskScoreParam(tt.in); got != tt.want {
			t.Errorf("riskScoreParam(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
