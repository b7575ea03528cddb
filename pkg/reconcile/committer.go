package reconcile

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/edunigo/sprout/pkg/slug"
	"github.com/edunigo/sprout/pkg/tracing"
)

// Committer applies reviewer-approved import decisions to a Store.
type Committer struct {
	logger ectologger.Logger
	engine *Engine
	store  Store
}

// NewCommitter creates a Committer writing through store. The engine is used
// for batch re-validation only.
func NewCommitter(logger ectologger.Logger, engine *Engine, store Store) *Committer {
	return &Committer{
		logger: logger,
		engine: engine,
		store:  store,
	}
}

// ImportAsNew appends the candidate as a new record with a store-allocated
// id. It performs no re-validation; the caller decides eligibility via the
// classifier (or deliberately overrides a fuzzy match by importing anyway).
func (c *Committer) ImportAsNew(ctx context.Context, candidate Classified) (*Record, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Committer.ImportAsNew")
	defer span.End()

	id, err := c.store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	record := Record{
		ID:            id,
		Name:          candidate.Name,
		Slug:          slug.Make(candidate.Name),
		ScopeKeys:     cloneStrings(candidate.ScopeKeys),
		DependencyIDs: candidate.ResolvedDependencyIDs(),
		Attributes:    cloneAttributes(candidate.Attributes),
	}
	if err := c.store.Append(ctx, record); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"id":   record.ID,
		"slug": record.Slug,
	}).Info("record imported")
	return &record, nil
}

// OverrideExisting replaces the mutable fields of the record at targetID with
// the candidate's: name, slug, attributes and resolved dependency ids. The id
// and scope tuple are preserved. Returns a not-found error when targetID is
// absent.
func (c *Committer) OverrideExisting(ctx context.Context, targetID string, candidate Classified) (*Record, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Committer.OverrideExisting")
	defer span.End()

	existing, err := c.store.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewNotFoundError(targetID)
	}

	updated := *existing
	updated.Name = candidate.Name
	updated.Slug = slug.Make(candidate.Name)
	updated.DependencyIDs = candidate.ResolvedDependencyIDs()
	updated.Attributes = cloneAttributes(candidate.Attributes)

	if err := c.store.Replace(ctx, updated); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"id":   updated.ID,
		"slug": updated.Slug,
	}).Info("record overridden")
	return &updated, nil
}

// ImportBatch imports every candidate in list order. The batch is
// all-or-nothing at the validation stage: every candidate is re-classified
// against the live store first, and a single non-importable candidate rejects
// the whole batch with zero mutation.
func (c *Committer) ImportBatch(ctx context.Context, candidates []Classified) ([]Record, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Committer.ImportBatch")
	defer span.End()

	revalidated := make([]Classified, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Name) == "" {
			return nil, NewInvalidCandidateError()
		}
		classified, err := c.reclassify(ctx, candidate.Candidate)
		if err != nil {
			return nil, err
		}
		if status := classified.Status(); status != StatusImportable {
			c.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"candidate": candidate.Name,
				"status":    string(status),
			}).Warn("batch rejected")
			return nil, NewDependencyMissingError(candidate.Name, status)
		}
		revalidated = append(revalidated, classified)
	}

	records := make([]Record, 0, len(revalidated))
	for _, classified := range revalidated {
		record, err := c.ImportAsNew(ctx, classified)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (c *Committer) reclassify(ctx context.Context, candidate Candidate) (Classified, error) {
	pool, err := c.store.List(ctx, candidate.ScopeKeys)
	if err != nil {
		return Classified{}, err
	}

	var lookups map[string][]Lookup
	if len(candidate.DependencyRefs) > 0 {
		lookups = make(map[string][]Lookup, len(candidate.DependencyRefs))
		for kind := range candidate.DependencyRefs {
			pool, err := c.store.Lookups(ctx, kind)
			if err != nil {
				return Classified{}, err
			}
			lookups[kind] = pool
		}
	}

	return c.engine.Classify(ctx, candidate, pool, lookups), nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneAttributes(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
