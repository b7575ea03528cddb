// Package processor handles suggestion batches arriving over Kafka: each
// batch is classified against the catalog and, when auto-import is enabled,
// importable candidates are committed without reviewer action.
package processor

import (
	"context"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/edunigo/sprout/pkg/events"
	"github.com/edunigo/sprout/pkg/kafka"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/tracing"
)

// ImportService is the subset of the import service the processor drives.
type ImportService interface {
	Classify(ctx context.Context, kind string, candidates []reconcile.Candidate) ([]reconcile.Classified, error)
	ImportBatch(ctx context.Context, kind, batchID string, candidates []reconcile.Classified) ([]reconcile.Record, error)
}

// Config tunes batch processing.
type Config struct {
	// AutoImport commits importable candidates without reviewer action.
	// Blocked candidates are only reported either way.
	AutoImport bool
}

// DefaultConfig returns the processor defaults.
func DefaultConfig() Config {
	return Config{AutoImport: false}
}

// Processor consumes suggestion batches.
type Processor struct {
	config  Config
	service ImportService
	emitter *events.Emitter
	logger  ectologger.Logger
}

// NewProcessor creates a processor. emitter may be nil.
func NewProcessor(config Config, service ImportService, emitter *events.Emitter, logger ectologger.Logger) *Processor {
	return &Processor{
		config:  config,
		service: service,
		emitter: emitter,
		logger:  logger,
	}
}

// ProcessMessage handles one consumed suggestion batch. A returned error
// means the batch should be redelivered; malformed or unknown-kind batches
// are dropped with a log instead.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	batch := msg.SuggestionBatch
	if batch == nil {
		return nil
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id": batch.BatchID,
		"kind":     batch.Kind,
	})

	if !reconcile.IsKind(batch.Kind) {
		log.Warn("Dropping batch with unknown entity kind")
		return nil
	}

	candidates := make([]reconcile.Candidate, 0, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		if len(candidate.ScopeKeys) == 0 {
			candidate.ScopeKeys = batch.ScopeKeys
		}
		candidates = append(candidates, candidate)
	}

	classified, err := p.service.Classify(ctx, batch.Kind, candidates)
	if err != nil {
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) < 500 {
			log.WithError(err).Warn("Dropping unprocessable batch")
			return nil
		}
		return err
	}

	var importable []reconcile.Classified
	for i := range classified {
		if classified[i].Status() == reconcile.StatusImportable {
			importable = append(importable, classified[i])
			continue
		}
		if err := p.emitter.EmitCandidateBlocked(ctx, batch.Kind, batch.BatchID, &classified[i]); err != nil {
			log.WithError(err).Warn("Failed to report blocked candidate")
		}
	}

	log.WithFields(map[string]any{
		"total":      len(classified),
		"importable": len(importable),
	}).Info("Classified suggestion batch")

	if !p.config.AutoImport || len(importable) == 0 {
		return nil
	}

	if _, err := p.service.ImportBatch(ctx, batch.Kind, batch.BatchID, importable); err != nil {
		// A 4xx here means the catalog moved between classification and
		// commit; the batch is stale, not retryable.
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) < 500 {
			log.WithError(err).Warn("Auto-import skipped for stale batch")
			return nil
		}
		return err
	}

	return nil
}
