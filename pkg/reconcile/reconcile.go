// Package reconcile implements the catalog reconciliation engine: it decides,
// for each AI-suggested candidate record, whether a matching record already
// exists (by slug or by fuzzy name similarity inside the candidate's parent
// scope), whether the candidate is blocked on a missing lookup dependency, or
// whether it can be imported as new.
package reconcile

// Record is an existing catalog record as seen by the engine. Concrete
// entities (cities, universities, campuses, courses, intakes) are projected
// into this shape before classification.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`

	// ScopeKeys is the ordered tuple of parent ids that bounds slug
	// uniqueness and fuzzy search (for a course: [campusID]).
	ScopeKeys []string `json:"scope_keys"`

	// DependencyIDs maps a dependency kind to the id of the linked lookup
	// entity (for a course: education_level and major).
	DependencyIDs map[string]string `json:"dependency_ids,omitempty"`

	Attributes map[string]any `json:"attributes,omitempty"`
}

// Candidate is an AI-suggested record. It has no id; DependencyRefs carries
// the free-text names of lookup entities that must resolve before import.
type Candidate struct {
	Name           string            `json:"name"`
	ScopeKeys      []string          `json:"scope_keys"`
	DependencyRefs map[string]string `json:"dependency_refs,omitempty"`
	Attributes     map[string]any    `json:"attributes,omitempty"`
}

// Lookup is a dependency pool entry (an existing city, education level or
// major), matched by case-insensitive name equality only.
type Lookup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolution is the outcome of resolving one dependency ref.
type Resolution struct {
	Exists bool   `json:"exists"`
	ID     string `json:"id,omitempty"`
}

// MatchKind identifies how a candidate matched an existing record.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// MatchResult is the outcome of the best-match search for one candidate.
type MatchResult struct {
	Kind       MatchKind `json:"kind"`
	Record     *Record   `json:"record,omitempty"`
	Similarity float64   `json:"similarity,omitempty"`
}

// Status is the derived reconciliation state of a classified candidate.
type Status string

const (
	// StatusExists - an exact or fuzzy match was found; import is blocked
	// unless the reviewer overrides the matched record.
	StatusExists Status = "exists"
	// StatusMissingDependency - a referenced lookup entity does not exist
	// and must be registered before the candidate can be imported.
	StatusMissingDependency Status = "missing_dependency"
	// StatusImportable - no match and every dependency resolved.
	StatusImportable Status = "importable"
)

// Classified is a candidate annotated with everything the review UI and the
// committer need: computed slug, exact-match flag, fuzzy result and per-kind
// dependency resolutions.
type Classified struct {
	Candidate

	Slug         string                `json:"slug"`
	Exists       bool                  `json:"exists"`
	ExactMatchID string                `json:"exact_match_id,omitempty"`
	FuzzyMatch   *MatchResult          `json:"fuzzy_match,omitempty"`
	Dependencies map[string]Resolution `json:"dependencies,omitempty"`
}

// Status derives the reconciliation state from the classified fields.
func (c *Classified) Status() Status {
	if c.Exists || c.FuzzyMatch != nil {
		return StatusExists
	}
	for _, res := range c.Dependencies {
		if !res.Exists {
			return StatusMissingDependency
		}
	}
	return StatusImportable
}

// ResolvedDependencyIDs returns the dependency kind to lookup id mapping for
// every resolved dependency.
func (c *Classified) ResolvedDependencyIDs() map[string]string {
	if len(c.Dependencies) == 0 {
		return nil
	}
	ids := make(map[string]string, len(c.Dependencies))
	for kind, res := range c.Dependencies {
		if res.Exists {
			ids[kind] = res.ID
		}
	}
	return ids
}
