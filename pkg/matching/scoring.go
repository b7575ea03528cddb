// Package matching implements the string comparison algorithms behind
// catalog reconciliation
package matching

import (
	"strings"

	"github.com/edunigo/sprout/pkg/normalizers"
)

// Scorer provides string comparison algorithms for catalog names
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Similarity returns a Levenshtein-based similarity percentage in [0, 100].
// Both inputs are normalized first (lowercase, trimmed, internal whitespace
// collapsed), so "Computer  Science" and "computer science" score 100.
// Two empty strings score 100. The result is symmetric in a and b.
//
// The DP table is O(len(a)*len(b)); inputs are short catalog names, never
// long free text.
func (s *Scorer) Similarity(a, b string) float64 {
	aNorm := normalizers.NormalizeName(a)
	bNorm := normalizers.NormalizeName(b)

	maxLen := max(len(aNorm), len(bNorm))
	if maxLen == 0 {
		return 100.0
	}

	distance := s.LevenshteinDistance(aNorm, bNorm)
	return 100.0 * float64(maxLen-distance) / float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
// (insertion, deletion and substitution each cost 1)
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rows are enough for the dynamic program
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
