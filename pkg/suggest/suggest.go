// Package suggest produces AI-generated candidate records for the import
// screens. Suggestions are untrusted input: everything returned here goes
// through the reconciliation classifier before a reviewer can import it.
package suggest

import (
	"context"

	"github.com/edunigo/sprout/pkg/reconcile"
)

// Request asks for candidates of one entity kind within a scope.
type Request struct {
	Kind      string
	ScopeKeys []string
	Prompt    string
	// Context carries scope names for the prompt (country, university, ...)
	// so the model is not asked to reason about opaque ids.
	Context map[string]string
}

// Suggester generates candidate records.
type Suggester interface {
	Suggest(ctx context.Context, req Request) ([]reconcile.Candidate, error)
}
