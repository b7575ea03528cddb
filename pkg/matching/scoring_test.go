package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"oxford main campus", "oxford of main campus", 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.LevenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"Harvard University", "Harvard University"},
		{"Harvard University", "Completely Different Name"},
		{"", "something"},
		{"a", "b"},
		{"Oxford Main Campus", "Oxford Of Main Campus"},
	}

	for _, p := range pairs {
		score := s.Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", p[0], p[1])
		assert.LessOrEqual(t, score, 100.0, "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"Harvard University", "Harvard College"},
		{"Oxford Main Campus", "Oxford Of Main Campus"},
		{"", "x"},
		{"Computer Science", "Data Science"},
	}

	for _, p := range pairs {
		assert.Equal(t, s.Similarity(p[0], p[1]), s.Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity_EmptyStrings(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 100.0, s.Similarity("", ""))
	assert.Equal(t, 100.0, s.Similarity("  ", "\t"))
	assert.Equal(t, 0.0, s.Similarity("", "abc"))
}

func TestSimilarity_NormalizesWhitespaceAndCase(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 100.0, s.Similarity("Computer Science", "Computer  Science"))
	assert.Equal(t, 100.0, s.Similarity("HARVARD UNIVERSITY", "harvard university"))
	assert.GreaterOrEqual(t, s.Similarity("Computer Science", "Computer  Science"), 70.0)
}

func TestSimilarity_ThresholdCases(t *testing.T) {
	s := NewScorer()

	// "oxford of main campus" vs "oxford main campus": distance 3 over len 21
	score := s.Similarity("Oxford Of Main Campus", "Oxford Main Campus")
	assert.GreaterOrEqual(t, score, 70.0)

	score = s.Similarity("Completely Different Name", "Oxford Main Campus")
	assert.Less(t, score, 70.0)
}
