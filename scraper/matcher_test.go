package scraper

import "testing"

func TestRankCandidates(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		target  string
		wantIdx int
	}{
		{
			name:    "exact match wins",
			texts:   []string{"Apply Now", "See More", "Share"},
			target:  "See More",
			wantIdx: 1,
		},
		{
			name:    "punctuation variant still wins",
			texts:   []string{"Apply Now", "See more...", "Share"},
			target:  "See More",
			wantIdx: 1,
		},
		{
			name:    "tie keeps first seen",
			texts:   []string{"Read More", "Read More"},
			target:  "Read More",
			wantIdx: 0,
		},
		{
			name:    "empty list",
			texts:   nil,
			target:  "See More",
			wantIdx: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _ := RankCandidates(tt.texts, tt.target)
			if idx != tt.wantIdx {
				t.Errorf("RankCandidates index = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

func TestRankCandidates_PunctuationScoresAboveThreshold(t *testing.T) {
	_, score := RankCandidates([]string{"See more..."}, "See More")
	if !Accept(score, 0.7) {
		t.Errorf("score %f should clear the 0.7 threshold", score)
	}
}

func TestAccept_ThresholdIsInclusive(t *testing.T) {
	if !Accept(0.7, 0.7) {
		t.Error("score equal to threshold must be accepted")
	}
	if Accept(0.699, 0.7) {
		t.Error("score below threshold must be rejected")
	}
	if !Accept(1.0, 0.7) {
		t.Error("perfect score must be accepted")
	}
}
