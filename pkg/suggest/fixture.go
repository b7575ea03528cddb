package suggest

import (
	"context"

	"github.com/edunigo/sprout/pkg/reconcile"
)

// Fixture is a canned Suggester for tests and local development.
type Fixture struct {
	Candidates []reconcile.Candidate
	Err        error
}

func (f *Fixture) Suggest(ctx context.Context, req Request) ([]reconcile.Candidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]reconcile.Candidate, len(f.Candidates))
	copy(out, f.Candidates)
	for i := range out {
		out[i].ScopeKeys = req.ScopeKeys
	}
	return out, nil
}
