package reconcile

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/edunigo/sprout/pkg/matching"
	"github.com/edunigo/sprout/pkg/slug"
	"github.com/edunigo/sprout/pkg/tracing"
)

// Config tunes the engine.
type Config struct {
	// SimilarityThreshold is the minimum score (0-100) for a fuzzy match.
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// DefaultConfig returns the engine defaults used by the import screens.
func DefaultConfig() Config {
	return Config{SimilarityThreshold: 70}
}

// Engine classifies candidates against pools of existing records.
type Engine struct {
	logger ectologger.Logger
	scorer *matching.Scorer
	config Config
}

// NewEngine creates an Engine with the given config.
func NewEngine(logger ectologger.Logger, config Config) *Engine {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	return &Engine{
		logger: logger,
		scorer: matching.NewScorer(),
		config: config,
	}
}

// ResolveDependency resolves a free-text dependency name against the lookup
// pool. Matching is exact by name, case-insensitive; no fuzzy fallback, so a
// near-miss stays unresolved and surfaces as a missing dependency for the
// reviewer to register explicitly.
func (e *Engine) ResolveDependency(name string, pool []Lookup) Resolution {
	want := strings.TrimSpace(name)
	for _, lookup := range pool {
		if strings.EqualFold(strings.TrimSpace(lookup.Name), want) {
			return Resolution{Exists: true, ID: lookup.ID}
		}
	}
	return Resolution{}
}

// FindBestMatch scans the record pool for the existing record most similar to
// the candidate's name. Only records in the exact same scope tuple and with
// the same resolved dependency ids compete; among eligible records at or
// above the threshold the highest score wins, first occurrence on ties.
func (e *Engine) FindBestMatch(ctx context.Context, candidate Candidate, depIDs map[string]string, pool []Record) MatchResult {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Engine.FindBestMatch")
	defer span.End()

	best := MatchResult{Kind: MatchNone}
	for i := range pool {
		record := &pool[i]
		if !scopeEqual(candidate.ScopeKeys, record.ScopeKeys) {
			continue
		}
		if !dependencyIDsEqual(depIDs, record.DependencyIDs) {
			continue
		}

		score := e.scorer.Similarity(candidate.Name, record.Name)
		if score < e.config.SimilarityThreshold {
			continue
		}
		if best.Record == nil || score > best.Similarity {
			best = MatchResult{Kind: MatchFuzzy, Record: record, Similarity: score}
		}
	}

	if best.Record != nil {
		e.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"candidate":  candidate.Name,
			"matched":    best.Record.Name,
			"similarity": best.Similarity,
		}).Debug("fuzzy match found")
	}
	return best
}

// Classify reconciles one candidate against the record pool and the lookup
// pools. The exact-slug check runs regardless of dependency state; the fuzzy
// search only runs when no exact match exists and every dependency resolved.
func (e *Engine) Classify(ctx context.Context, candidate Candidate, pool []Record, lookups map[string][]Lookup) Classified {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Engine.Classify")
	defer span.End()

	classified := Classified{
		Candidate: candidate,
		Slug:      slug.Make(candidate.Name),
	}

	if len(candidate.DependencyRefs) > 0 {
		classified.Dependencies = make(map[string]Resolution, len(candidate.DependencyRefs))
		for kind, name := range candidate.DependencyRefs {
			classified.Dependencies[kind] = e.ResolveDependency(name, lookups[kind])
		}
	}

	depIDs := classified.ResolvedDependencyIDs()
	allResolved := len(depIDs) == len(candidate.DependencyRefs)

	for i := range pool {
		record := &pool[i]
		if !scopeEqual(candidate.ScopeKeys, record.ScopeKeys) {
			continue
		}
		if record.Slug != classified.Slug {
			continue
		}
		if !dependenciesMatch(classified.Dependencies, record.DependencyIDs) {
			continue
		}
		classified.Exists = true
		classified.ExactMatchID = record.ID
		break
	}

	if !classified.Exists && allResolved {
		if match := e.FindBestMatch(ctx, candidate, depIDs, pool); match.Kind == MatchFuzzy {
			classified.FuzzyMatch = &match
		}
	}

	return classified
}

// ClassifyAll classifies every candidate independently against the same
// pools.
func (e *Engine) ClassifyAll(ctx context.Context, candidates []Candidate, pool []Record, lookups map[string][]Lookup) []Classified {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Engine.ClassifyAll")
	defer span.End()

	results := make([]Classified, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, e.Classify(ctx, candidate, pool, lookups))
	}
	return results
}

func scopeEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dependencyIDsEqual compares fully-resolved dependency ids with a record's
// linked ids over the candidate's kinds.
func dependencyIDsEqual(want map[string]string, have map[string]string) bool {
	for kind, id := range want {
		if have[kind] != id {
			return false
		}
	}
	return true
}

// dependenciesMatch compares dependency resolutions with a record's linked
// ids. An unresolved dependency never matches a record, so an exact-slug hit
// on a candidate with a missing dependency still surfaces as missing rather
// than existing.
func dependenciesMatch(deps map[string]Resolution, have map[string]string) bool {
	for kind, res := range deps {
		if !res.Exists || have[kind] != res.ID {
			return false
		}
	}
	return true
}
