package reconcile

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEngine(logger, DefaultConfig())
}

func TestResolveDependency(t *testing.T) {
	engine := newTestEngine()
	pool := []Lookup{
		{ID: "1", Name: "Bachelor's Degree"},
		{ID: "2", Name: "Master's Degree"},
	}

	tests := []struct {
		name     string
		input    string
		expected Resolution
	}{
		{name: "exact", input: "Bachelor's Degree", expected: Resolution{Exists: true, ID: "1"}},
		{name: "case insensitive", input: "bachelor's degree", expected: Resolution{Exists: true, ID: "1"}},
		{name: "surrounding whitespace", input: "  Master's Degree ", expected: Resolution{Exists: true, ID: "2"}},
		{name: "near miss stays missing", input: "Bachelors Degree", expected: Resolution{}},
		{name: "unknown", input: "Doctorate", expected: Resolution{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ResolveDependency(tt.input, pool))
		})
	}
}

func TestFindBestMatch_ThresholdAndScope(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{ID: "1", Name: "Oxford Main Campus", Slug: "oxford-main-campus", ScopeKeys: []string{"u1", "c1"}},
		{ID: "2", Name: "Oxford Main Campus", Slug: "oxford-main-campus", ScopeKeys: []string{"u2", "c1"}},
	}

	match := engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Oxford Of Main Campus",
		ScopeKeys: []string{"u1", "c1"},
	}, nil, pool)

	require.Equal(t, MatchFuzzy, match.Kind)
	assert.Equal(t, "1", match.Record.ID)
	assert.GreaterOrEqual(t, match.Similarity, 70.0)

	// identical name in a different scope never competes
	match = engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Oxford Main Campus",
		ScopeKeys: []string{"u3", "c1"},
	}, nil, pool)
	assert.Equal(t, MatchNone, match.Kind)

	match = engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Completely Different Name",
		ScopeKeys: []string{"u1", "c1"},
	}, nil, pool)
	assert.Equal(t, MatchNone, match.Kind)
}

func TestFindBestMatch_DependencyIsolation(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{
			ID: "1", Name: "Computer Science", Slug: "computer-science",
			ScopeKeys:     []string{"campus1"},
			DependencyIDs: map[string]string{DepEducationLevel: "lvl1", DepMajor: "m1"},
		},
	}

	// same name but a different education level never fuzzy-matches
	match := engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Computer Science",
		ScopeKeys: []string{"campus1"},
	}, map[string]string{DepEducationLevel: "lvl2", DepMajor: "m1"}, pool)
	assert.Equal(t, MatchNone, match.Kind)

	match = engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Computer Sciences",
		ScopeKeys: []string{"campus1"},
	}, map[string]string{DepEducationLevel: "lvl1", DepMajor: "m1"}, pool)
	assert.Equal(t, MatchFuzzy, match.Kind)
}

func TestFindBestMatch_FirstMaxTieBreak(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{ID: "1", Name: "Harvard University", Slug: "harvard-university", ScopeKeys: []string{"c1"}},
		{ID: "2", Name: "Harvard University", Slug: "harvard-university", ScopeKeys: []string{"c1"}},
	}

	match := engine.FindBestMatch(context.Background(), Candidate{
		Name:      "Harvard Universty",
		ScopeKeys: []string{"c1"},
	}, nil, pool)

	require.Equal(t, MatchFuzzy, match.Kind)
	assert.Equal(t, "1", match.Record.ID)
}

func TestClassify_ExactBeforeFuzzy(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{ID: "1", Name: "Harvard University", Slug: "harvard-university", ScopeKeys: []string{"c1"}},
	}

	// extra internal whitespace collapses to the same slug: exact, not fuzzy
	classified := engine.Classify(context.Background(), Candidate{
		Name:      "Harvard  University",
		ScopeKeys: []string{"c1"},
	}, pool, nil)

	assert.Equal(t, "harvard-university", classified.Slug)
	assert.True(t, classified.Exists)
	assert.Equal(t, "1", classified.ExactMatchID)
	assert.Nil(t, classified.FuzzyMatch)
	assert.Equal(t, StatusExists, classified.Status())
}

func TestClassify_FuzzyExists(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{ID: "1", Name: "Oxford Main Campus", Slug: "oxford-main-campus", ScopeKeys: []string{"u1", "c1"}},
	}

	classified := engine.Classify(context.Background(), Candidate{
		Name:      "Oxford Of Main Campus",
		ScopeKeys: []string{"u1", "c1"},
	}, pool, nil)

	assert.False(t, classified.Exists)
	require.NotNil(t, classified.FuzzyMatch)
	assert.Equal(t, "1", classified.FuzzyMatch.Record.ID)
	assert.Equal(t, StatusExists, classified.Status())
}

func TestClassify_MissingDependencyBlocksFuzzyAndExact(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{
			ID: "1", Name: "Business Administration", Slug: "business-administration",
			ScopeKeys:     []string{"campus1"},
			DependencyIDs: map[string]string{DepEducationLevel: "lvl1", DepMajor: "m1"},
		},
	}
	lookups := map[string][]Lookup{
		DepEducationLevel: {{ID: "lvl1", Name: "Bachelor's Degree"}},
		DepMajor:          {{ID: "m1", Name: "Business"}},
	}

	// unresolved education level: name matches exactly, status is still
	// missing_dependency and no fuzzy match is attempted
	classified := engine.Classify(context.Background(), Candidate{
		Name:      "Business Administration",
		ScopeKeys: []string{"campus1"},
		DependencyRefs: map[string]string{
			DepEducationLevel: "Associate Degree",
			DepMajor:          "Business",
		},
	}, pool, lookups)

	assert.False(t, classified.Exists)
	assert.Nil(t, classified.FuzzyMatch)
	assert.Equal(t, StatusMissingDependency, classified.Status())
	assert.False(t, classified.Dependencies[DepEducationLevel].Exists)
	assert.True(t, classified.Dependencies[DepMajor].Exists)
}

func TestClassify_AllResolvedImportable(t *testing.T) {
	engine := newTestEngine()
	lookups := map[string][]Lookup{
		DepEducationLevel: {{ID: "lvl1", Name: "Bachelor's Degree"}},
		DepMajor:          {{ID: "m1", Name: "Engineering"}},
	}

	classified := engine.Classify(context.Background(), Candidate{
		Name:      "Mechanical Engineering",
		ScopeKeys: []string{"campus1"},
		DependencyRefs: map[string]string{
			DepEducationLevel: "bachelor's degree",
			DepMajor:          "Engineering",
		},
	}, nil, lookups)

	assert.Equal(t, StatusImportable, classified.Status())
	assert.Equal(t, map[string]string{DepEducationLevel: "lvl1", DepMajor: "m1"}, classified.ResolvedDependencyIDs())
}

func TestClassify_EmptyPools(t *testing.T) {
	engine := newTestEngine()

	classified := engine.Classify(context.Background(), Candidate{
		Name:      "Toronto",
		ScopeKeys: []string{"country1"},
	}, nil, nil)

	assert.Equal(t, StatusImportable, classified.Status())
	assert.Equal(t, "toronto", classified.Slug)
}

func TestClassifyAll(t *testing.T) {
	engine := newTestEngine()
	pool := []Record{
		{ID: "1", Name: "Toronto", Slug: "toronto", ScopeKeys: []string{"country1"}},
	}

	results := engine.ClassifyAll(context.Background(), []Candidate{
		{Name: "Toronto", ScopeKeys: []string{"country1"}},
		{Name: "Vancouver", ScopeKeys: []string{"country1"}},
	}, pool, nil)

	require.Len(t, results, 2)
	assert.Equal(t, StatusExists, results[0].Status())
	assert.Equal(t, StatusImportable, results[1].Status())
}
