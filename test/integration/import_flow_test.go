package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aiimportservice "github.com/edunigo/sprout/internal/services/aiimport"
	"github.com/edunigo/sprout/pkg/kafka"
	"github.com/edunigo/sprout/pkg/processor"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/suggest"
)

// memoryFactory hands out one shared in-memory store per entity kind, so a
// whole import flow can run against live state without Postgres.
type memoryFactory struct {
	stores map[string]*reconcile.MemStore
}

func newMemoryFactory() *memoryFactory {
	return &memoryFactory{stores: make(map[string]*reconcile.MemStore)}
}

func (f *memoryFactory) ForScope(kind string, scopeKeys []string) (reconcile.Store, error) {
	store, ok := f.stores[kind]
	if !ok {
		store = reconcile.NewMemStore()
		f.stores[kind] = store
	}
	return store, nil
}

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestService(factory *memoryFactory, suggester suggest.Suggester) *aiimportservice.Service {
	logger := newTestLogger()
	engine := reconcile.NewEngine(logger, reconcile.DefaultConfig())
	return aiimportservice.NewService(logger, engine, factory, suggester, nil, nil)
}

func TestUniversityImportFlow(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	service := newTestService(factory, nil)

	candidate := reconcile.Candidate{
		Name:      "Trinity College Dublin",
		ScopeKeys: []string{"country-ie"},
	}

	classified, err := service.Classify(ctx, reconcile.KindUniversity, []reconcile.Candidate{candidate})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	assert.Equal(t, reconcile.StatusImportable, classified[0].Status())
	assert.Equal(t, "trinity-college-dublin", classified[0].Slug)

	record, err := service.Import(ctx, reconcile.KindUniversity, classified[0])
	require.NoError(t, err)
	assert.Equal(t, "trinity-college-dublin", record.Slug)

	t.Run("ReclassifyFindsExactMatch", func(t *testing.T) {
		again, err := service.Classify(ctx, reconcile.KindUniversity, []reconcile.Candidate{{
			Name:      "Trinity  College  Dublin",
			ScopeKeys: []string{"country-ie"},
		}})
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Equal(t, reconcile.StatusExists, again[0].Status())
		assert.Equal(t, record.ID, again[0].ExactMatchID)
		assert.Nil(t, again[0].FuzzyMatch)
	})

	t.Run("NearDuplicateFlaggedAsFuzzy", func(t *testing.T) {
		near, err := service.Classify(ctx, reconcile.KindUniversity, []reconcile.Candidate{{
			Name:      "Trinity Colege Dublin",
			ScopeKeys: []string{"country-ie"},
		}})
		require.NoError(t, err)
		require.Len(t, near, 1)
		assert.Equal(t, reconcile.StatusExists, near[0].Status())
		require.NotNil(t, near[0].FuzzyMatch)
		assert.Equal(t, record.ID, near[0].FuzzyMatch.Record.ID)
		assert.GreaterOrEqual(t, near[0].FuzzyMatch.Similarity, 70.0)
	})

	t.Run("OtherCountryIsNotAffected", func(t *testing.T) {
		other, err := service.Classify(ctx, reconcile.KindUniversity, []reconcile.Candidate{{
			Name:      "Trinity College Dublin",
			ScopeKeys: []string{"country-us"},
		}})
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.Equal(t, reconcile.StatusImportable, other[0].Status())
	})
}

func TestCourseDependencyFlow(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	service := newTestService(factory, nil)

	candidate := reconcile.Candidate{
		Name:      "Computer Science",
		ScopeKeys: []string{"campus-1"},
		DependencyRefs: map[string]string{
			reconcile.DepEducationLevel: "Bachelor",
			reconcile.DepMajor:          "Engineering",
		},
	}

	classified, err := service.Classify(ctx, reconcile.KindCourse, []reconcile.Candidate{candidate})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	assert.Equal(t, reconcile.StatusMissingDependency, classified[0].Status())

	t.Run("BatchRejectsUnresolvedDependencies", func(t *testing.T) {
		_, err := service.ImportBatch(ctx, reconcile.KindCourse, "batch-1", classified)
		require.Error(t, err)
		assert.True(t, reconcile.IsDependencyMissing(err))
		assert.Equal(t, 0, factory.stores[reconcile.KindCourse].Len())
	})

	// Registering the lookups unblocks the same candidate.
	factory.stores[reconcile.KindCourse].
		SeedLookups(reconcile.DepEducationLevel, reconcile.Lookup{ID: "lvl-1", Name: "bachelor"}).
		SeedLookups(reconcile.DepMajor, reconcile.Lookup{ID: "major-1", Name: "Engineering"})

	classified, err = service.Classify(ctx, reconcile.KindCourse, []reconcile.Candidate{candidate})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	require.Equal(t, reconcile.StatusImportable, classified[0].Status())
	assert.Equal(t, "lvl-1", classified[0].Dependencies[reconcile.DepEducationLevel].ID)

	records, err := service.ImportBatch(ctx, reconcile.KindCourse, "batch-2", classified)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lvl-1", records[0].DependencyIDs[reconcile.DepEducationLevel])
	assert.Equal(t, "major-1", records[0].DependencyIDs[reconcile.DepMajor])

	t.Run("ReimportOfCommittedBatchIsRejected", func(t *testing.T) {
		stale, err := service.Classify(ctx, reconcile.KindCourse, []reconcile.Candidate{candidate})
		require.NoError(t, err)
		_, err = service.ImportBatch(ctx, reconcile.KindCourse, "batch-3", stale)
		require.Error(t, err)
		assert.True(t, reconcile.IsDependencyMissing(err))
		assert.Equal(t, 1, factory.stores[reconcile.KindCourse].Len())
	})
}

func TestOverrideFlow(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	service := newTestService(factory, nil)

	imported, err := service.Import(ctx, reconcile.KindCity, reconcile.Classified{
		Candidate: reconcile.Candidate{
			Name:      "Munchen",
			ScopeKeys: []string{"country-de"},
		},
	})
	require.NoError(t, err)

	updated, err := service.Override(ctx, reconcile.KindCity, imported.ID, reconcile.Classified{
		Candidate: reconcile.Candidate{
			Name:       "Munich",
			ScopeKeys:  []string{"country-de"},
			Attributes: map[string]any{"population": 1500000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, imported.ID, updated.ID)
	assert.Equal(t, "Munich", updated.Name)
	assert.Equal(t, "munich", updated.Slug)
	assert.Equal(t, []string{"country-de"}, updated.ScopeKeys)

	t.Run("UnknownTargetReturnsNotFound", func(t *testing.T) {
		_, err := service.Override(ctx, reconcile.KindCity, "missing-id", reconcile.Classified{
			Candidate: reconcile.Candidate{Name: "Berlin", ScopeKeys: []string{"country-de"}},
		})
		require.Error(t, err)
		assert.True(t, reconcile.IsNotFound(err))
	})
}

func TestSuggestFlowClassifiesResults(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	factory.stores[reconcile.KindCity] = reconcile.NewMemStore().Seed(reconcile.Record{
		ID:        "1",
		Name:      "Vancouver",
		Slug:      "vancouver",
		ScopeKeys: []string{"country-ca"},
	})

	fixture := &suggest.Fixture{Candidates: []reconcile.Candidate{
		{Name: "Vancouver"},
		{Name: "Victoria"},
	}}
	service := newTestService(factory, fixture)

	results, err := service.Suggest(ctx, reconcile.KindCity, suggest.Request{
		Kind:      reconcile.KindCity,
		ScopeKeys: []string{"country-ca"},
		Prompt:    "major cities in British Columbia",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, reconcile.StatusExists, results[0].Status())
	assert.Equal(t, reconcile.StatusImportable, results[1].Status())
}

func TestSuggestionPipelineAutoImport(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	factory.stores[reconcile.KindCity] = reconcile.NewMemStore().Seed(reconcile.Record{
		ID:        "1",
		Name:      "Toronto",
		Slug:      "toronto",
		ScopeKeys: []string{"country-ca"},
	})
	service := newTestService(factory, nil)

	proc := processor.NewProcessor(processor.Config{AutoImport: true}, service, nil, newTestLogger())

	payload, err := json.Marshal(kafka.SuggestionBatchMessage{
		BatchID:   "batch-42",
		Kind:      reconcile.KindCity,
		ScopeKeys: []string{"country-ca"},
		Candidates: []reconcile.Candidate{
			{Name: "Toronto"},
			{Name: "Ottawa"},
		},
		Source:    "ai",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	msg := &kafka.IncomingMessage{Key: "batch-42", Value: payload}
	require.NoError(t, msg.ParseSuggestionBatch())
	require.NoError(t, proc.ProcessMessage(ctx, msg))

	// Toronto already exists; only Ottawa lands.
	store := factory.stores[reconcile.KindCity]
	assert.Equal(t, 2, store.Len())
	record, err := store.Get(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Ottawa", record.Name)
	assert.Equal(t, "ottawa", record.Slug)
}
