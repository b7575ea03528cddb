package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Computer  Science", "Computer Science"},
		{"  Computer Science  ", "Computer Science"},
		{"Computer\t\nScience", "Computer Science"},
		{"", ""},
		{"   ", ""},
		{"one", "one"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CollapseWhitespace(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "harvard university", NormalizeName("Harvard  University"))
	assert.Equal(t, "harvard university", NormalizeName(" HARVARD UNIVERSITY "))
	assert.Equal(t, "", NormalizeName("  "))
}

func TestApplyChain(t *testing.T) {
	got := ApplyChain("  Oxford  Main  ", "lowercase", "collapse_whitespace")
	assert.Equal(t, "oxford main", got)
}

func TestApply_UnknownNormalizerPassesThrough(t *testing.T) {
	assert.Equal(t, "unchanged", Apply("unchanged", "does_not_exist"))
}
