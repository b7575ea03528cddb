package reconcile

import "context"

// Store is the persistence collaborator for one entity kind. The engine only
// reads snapshots through it; the committer writes through it. Implementations
// are expected to scope writes to a transaction when the backing store
// supports one.
type Store interface {
	// NextID allocates the id for a newly imported record.
	NextID(ctx context.Context) (string, error)
	// Get returns the record with the given id, or nil when absent.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns every record in the given scope tuple, in stable order.
	List(ctx context.Context, scopeKeys []string) ([]Record, error)
	// Lookups returns the dependency pool for the given dependency kind.
	Lookups(ctx context.Context, kind string) ([]Lookup, error)
	// Append inserts a new record.
	Append(ctx context.Context, record Record) error
	// Replace overwrites the record with record.ID.
	Replace(ctx context.Context, record Record) error
}
