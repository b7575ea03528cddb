package aiimport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/events"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/suggest"
)

type memFactory struct {
	store *reconcile.MemStore
}

func (f *memFactory) ForScope(kind string, scopeKeys []string) (reconcile.Store, error) {
	return f.store, nil
}

// fakeTx records commit and rollback calls with close-once semantics.
type fakeTx struct {
	open      bool
	commits   int
	rollbacks int
}

func (t *fakeTx) IsOpen() bool { return t.open }

func (t *fakeTx) Commit(ctx context.Context) error {
	if !t.open {
		return nil
	}
	t.commits++
	t.open = false
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.open {
		return nil
	}
	t.rollbacks++
	t.open = false
	return nil
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

func (t *fakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

func (t *fakeTx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) Rebind(query string) string { return query }

// txMemStore is a MemStore that also hands out a transaction, the way the
// Postgres-backed store does.
type txMemStore struct {
	*reconcile.MemStore
	tx *fakeTx
}

func (s *txMemStore) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	s.tx.open = true
	return ctx, s.tx, nil
}

type txFactory struct {
	store *txMemStore
}

func (f *txFactory) ForScope(kind string, scopeKeys []string) (reconcile.Store, error) {
	return f.store, nil
}

type recordingPublisher struct {
	headers []map[string]string
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, payload any, headers map[string]string) error {
	p.headers = append(p.headers, headers)
	return nil
}

func newTestService(store *reconcile.MemStore, suggester suggest.Suggester) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := reconcile.NewEngine(logger, reconcile.DefaultConfig())
	return NewService(logger, engine, &memFactory{store: store}, suggester, nil, nil)
}

func TestClassify(t *testing.T) {
	store := reconcile.NewMemStore().Seed(
		reconcile.Record{ID: "1", Name: "Harvard University", Slug: "harvard-university", ScopeKeys: []string{"country1"}},
	)
	service := newTestService(store, nil)

	results, err := service.Classify(context.Background(), reconcile.KindUniversity, []reconcile.Candidate{
		{Name: "Harvard  University", ScopeKeys: []string{"country1"}},
		{Name: "Completely Different Name", ScopeKeys: []string{"country1"}},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, reconcile.StatusExists, results[0].Status())
	assert.Equal(t, reconcile.StatusImportable, results[1].Status())
}

func TestClassify_UnknownKind(t *testing.T) {
	service := newTestService(reconcile.NewMemStore(), nil)

	_, err := service.Classify(context.Background(), "faculty", nil)
	assert.Error(t, err)
}

func TestImportThenClassifyAgain(t *testing.T) {
	store := reconcile.NewMemStore()
	service := newTestService(store, nil)

	record, err := service.Import(context.Background(), reconcile.KindCity, reconcile.Classified{
		Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "toronto", record.Slug)

	results, err := service.Classify(context.Background(), reconcile.KindCity, []reconcile.Candidate{
		{Name: "Toronto", ScopeKeys: []string{"country1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusExists, results[0].Status())
	assert.Equal(t, record.ID, results[0].ExactMatchID)
}

func TestImportBatch_ScopeMismatch(t *testing.T) {
	service := newTestService(reconcile.NewMemStore(), nil)

	_, err := service.ImportBatch(context.Background(), reconcile.KindCity, "", []reconcile.Classified{
		{Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}}},
		{Candidate: reconcile.Candidate{Name: "Lyon", ScopeKeys: []string{"country2"}}},
	})
	assert.Error(t, err)
}

func TestImportBatch_CommitsTransaction(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := reconcile.NewEngine(logger, reconcile.DefaultConfig())
	store := &txMemStore{MemStore: reconcile.NewMemStore(), tx: &fakeTx{}}
	service := NewService(logger, engine, &txFactory{store: store}, nil, nil, nil)

	records, err := service.ImportBatch(context.Background(), reconcile.KindCity, "batch-1", []reconcile.Classified{
		{Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}}},
		{Candidate: reconcile.Candidate{Name: "Ottawa", ScopeKeys: []string{"country1"}}},
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, store.tx.commits)
	assert.Equal(t, 0, store.tx.rollbacks)
}

func TestImportBatch_RejectedRollsBackAndEmitsEvent(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := reconcile.NewEngine(logger, reconcile.DefaultConfig())
	store := &txMemStore{
		MemStore: reconcile.NewMemStore().Seed(
			reconcile.Record{ID: "1", Name: "Toronto", Slug: "toronto", ScopeKeys: []string{"country1"}},
		),
		tx: &fakeTx{},
	}
	publisher := &recordingPublisher{}
	emitter := events.NewEmitter(publisher, logger)
	service := NewService(logger, engine, &txFactory{store: store}, nil, emitter, nil)

	// re-validation finds the duplicate: the batch is dropped whole
	_, err := service.ImportBatch(context.Background(), reconcile.KindCity, "batch-9", []reconcile.Classified{
		{Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}}},
	})

	require.Error(t, err)
	assert.Equal(t, 0, store.tx.commits)
	assert.Equal(t, 1, store.tx.rollbacks)
	assert.Equal(t, 1, store.Len())
	require.Len(t, publisher.headers, 1)
	assert.Equal(t, string(events.EventTypeBatchRejected), publisher.headers[0]["event_type"])
	assert.Equal(t, reconcile.KindCity, publisher.headers[0]["kind"])
}

func TestSuggestClassifiesCandidates(t *testing.T) {
	store := reconcile.NewMemStore().Seed(
		reconcile.Record{ID: "1", Name: "Toronto", Slug: "toronto", ScopeKeys: []string{"country1"}},
	)
	fixture := &suggest.Fixture{Candidates: []reconcile.Candidate{
		{Name: "Toronto"},
		{Name: "Montreal"},
	}}
	service := newTestService(store, fixture)

	results, err := service.Suggest(context.Background(), reconcile.KindCity, suggest.Request{
		ScopeKeys: []string{"country1"},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, reconcile.StatusExists, results[0].Status())
	assert.Equal(t, reconcile.StatusImportable, results[1].Status())
}

func TestSuggest_NotConfigured(t *testing.T) {
	service := newTestService(reconcile.NewMemStore(), nil)

	_, err := service.Suggest(context.Background(), reconcile.KindCity, suggest.Request{ScopeKeys: []string{"country1"}})
	assert.Error(t, err)
}
