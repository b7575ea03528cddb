// Package aiimport glues the reconciliation engine to the catalog stores,
// event emission and graph projection. It backs the AI Import screens and the
// suggestion-batch consumer.
package aiimport

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/events"
	"github.com/edunigo/sprout/pkg/graph"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/suggest"
	"github.com/edunigo/sprout/pkg/tracing"
)

// StoreFactory builds a scope-bound store for one entity kind.
type StoreFactory interface {
	ForScope(kind string, scopeKeys []string) (reconcile.Store, error)
}

// txStarter is implemented by Postgres-backed stores. In-memory stores commit
// each write directly and skip the transaction.
type txStarter interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// Service coordinates classification and import for every entity kind.
type Service struct {
	logger    ectologger.Logger
	engine    *reconcile.Engine
	stores    StoreFactory
	suggester suggest.Suggester
	emitter   *events.Emitter
	projector *graph.Projector
}

// NewService creates the import service. suggester, emitter and projector may
// be nil; the corresponding features are then disabled.
func NewService(
	logger ectologger.Logger,
	engine *reconcile.Engine,
	stores StoreFactory,
	suggester suggest.Suggester,
	emitter *events.Emitter,
	projector *graph.Projector,
) *Service {
	return &Service{
		logger:    logger,
		engine:    engine,
		stores:    stores,
		suggester: suggester,
		emitter:   emitter,
		projector: projector,
	}
}

// Classify reconciles candidates of one kind against the current catalog.
// Candidates may span multiple scopes; pools are fetched once per scope.
func (s *Service) Classify(ctx context.Context, kind string, candidates []reconcile.Candidate) ([]reconcile.Classified, error) {
	ctx, span := tracing.StartSpan(ctx, "aiimport.Service.Classify")
	defer span.End()

	cfg, ok := reconcile.ConfigFor(kind)
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", kind)
	}

	type scopePools struct {
		records []reconcile.Record
		lookups map[string][]reconcile.Lookup
	}
	cache := make(map[string]*scopePools)

	results := make([]reconcile.Classified, 0, len(candidates))
	for _, candidate := range candidates {
		key := strings.Join(candidate.ScopeKeys, "|")
		pools, ok := cache[key]
		if !ok {
			store, err := s.stores.ForScope(kind, candidate.ScopeKeys)
			if err != nil {
				return nil, err
			}
			records, err := store.List(ctx, candidate.ScopeKeys)
			if err != nil {
				return nil, err
			}
			pools = &scopePools{records: records}
			if len(cfg.DependencyKinds) > 0 {
				pools.lookups = make(map[string][]reconcile.Lookup, len(cfg.DependencyKinds))
				for _, depKind := range cfg.DependencyKinds {
					pool, err := store.Lookups(ctx, depKind)
					if err != nil {
						return nil, err
					}
					pools.lookups[depKind] = pool
				}
			}
			cache[key] = pools
		}

		results = append(results, s.engine.Classify(ctx, candidate, pools.records, pools.lookups))
	}

	return results, nil
}

// Import commits one candidate as a new record, emits the lifecycle event and
// projects the record into the graph.
func (s *Service) Import(ctx context.Context, kind string, candidate reconcile.Classified) (*reconcile.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "aiimport.Service.Import")
	defer span.End()

	if strings.TrimSpace(candidate.Name) == "" {
		return nil, reconcile.NewInvalidCandidateError()
	}

	store, err := s.stores.ForScope(kind, candidate.ScopeKeys)
	if err != nil {
		return nil, err
	}

	committer := reconcile.NewCommitter(s.logger, s.engine, store)
	record, err := committer.ImportAsNew(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if err := s.emitter.EmitRecordImported(ctx, kind, record, "", "manual"); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Import committed but event emission failed")
	}
	s.projector.ProjectRecord(ctx, kind, record)

	return record, nil
}

// Override replaces the record at targetID with the candidate's fields.
func (s *Service) Override(ctx context.Context, kind, targetID string, candidate reconcile.Classified) (*reconcile.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "aiimport.Service.Override")
	defer span.End()

	if strings.TrimSpace(candidate.Name) == "" {
		return nil, reconcile.NewInvalidCandidateError()
	}

	store, err := s.stores.ForScope(kind, candidate.ScopeKeys)
	if err != nil {
		return nil, err
	}

	committer := reconcile.NewCommitter(s.logger, s.engine, store)
	record, err := committer.OverrideExisting(ctx, targetID, candidate)
	if err != nil {
		return nil, err
	}

	if err := s.emitter.EmitRecordOverridden(ctx, kind, record); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Override committed but event emission failed")
	}
	s.projector.ProjectRecord(ctx, kind, record)

	return record, nil
}

// ImportBatch atomically imports candidates of one kind. All candidates must
// share one scope tuple; a batch maps to a single import screen.
func (s *Service) ImportBatch(ctx context.Context, kind, batchID string, candidates []reconcile.Classified) ([]reconcile.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "aiimport.Service.ImportBatch")
	defer span.End()

	if len(candidates) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "batch must contain at least one candidate")
	}
	scope := candidates[0].ScopeKeys
	for _, candidate := range candidates[1:] {
		if strings.Join(candidate.ScopeKeys, "|") != strings.Join(scope, "|") {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "batch candidates must share one scope")
		}
	}
	if batchID == "" {
		batchID = uuid.New().String()
	}

	store, err := s.stores.ForScope(kind, scope)
	if err != nil {
		return nil, err
	}

	committer := reconcile.NewCommitter(s.logger, s.engine, store)

	commitCtx := ctx
	var tx database.Tx
	if starter, ok := store.(txStarter); ok {
		txCtx, startedTx, err := starter.GetTx(ctx, nil)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
		}
		tx = startedTx
		defer tx.Rollback(ctx)
		commitCtx = txCtx
	}

	records, err := committer.ImportBatch(commitCtx, candidates)
	if err != nil {
		if emitErr := s.emitter.EmitBatchRejected(ctx, kind, batchID, err.Error()); emitErr != nil {
			s.logger.WithContext(ctx).WithError(emitErr).Warn("Batch rejected but event emission failed")
		}
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit batch")
		}
	}

	for i := range records {
		if err := s.emitter.EmitRecordImported(ctx, kind, &records[i], batchID, "batch"); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Batch committed but event emission failed")
		}
		s.projector.ProjectRecord(ctx, kind, &records[i])
	}
	if err := s.emitter.EmitBatchCommitted(ctx, kind, batchID, records); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Batch committed but event emission failed")
	}

	return records, nil
}

// Suggest generates AI candidates and returns them classified, never raw.
func (s *Service) Suggest(ctx context.Context, kind string, req suggest.Request) ([]reconcile.Classified, error) {
	ctx, span := tracing.StartSpan(ctx, "aiimport.Service.Suggest")
	defer span.End()

	if s.suggester == nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "suggestions are not configured")
	}

	req.Kind = kind
	candidates, err := s.suggester.Suggest(ctx, req)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "failed to generate suggestions")
	}

	return s.Classify(ctx, kind, candidates)
}
