// Package events handles event emission for catalog import lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	sproutcontext "github.com/edunigo/sprout/pkg/context"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher sends serialized events to the output topic.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any, headers map[string]string) error
}

// Emitter publishes catalog import events. A nil Emitter is a no-op, so
// callers never have to guard emission.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) base(ctx context.Context, eventType EventType, kind string) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Kind:          kind,
		Timestamp:     time.Now().UTC(),
		AdminID:       sproutcontext.GetAdminID(ctx),
	}
}

// EmitRecordImported emits a record.imported event
func (e *Emitter) EmitRecordImported(ctx context.Context, kind string, record *reconcile.Record, batchID, source string) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRecordImported")
	defer span.End()

	event := &RecordImportedEvent{
		BaseEvent: e.base(ctx, EventTypeRecordImported, kind),
		RecordID:  record.ID,
		Record:    *record,
		BatchID:   batchID,
		Source:    source,
	}

	if err := e.producer.Publish(ctx, record.ID, event, eventHeaders(event.BaseEvent)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit record.imported event")
		return err
	}
	return nil
}

// EmitRecordOverridden emits a record.overridden event
func (e *Emitter) EmitRecordOverridden(ctx context.Context, kind string, record *reconcile.Record) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRecordOverridden")
	defer span.End()

	event := &RecordOverriddenEvent{
		BaseEvent: e.base(ctx, EventTypeRecordOverridden, kind),
		RecordID:  record.ID,
		Record:    *record,
	}

	if err := e.producer.Publish(ctx, record.ID, event, eventHeaders(event.BaseEvent)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit record.overridden event")
		return err
	}
	return nil
}

// EmitBatchCommitted emits an import.batch_committed event
func (e *Emitter) EmitBatchCommitted(ctx context.Context, kind, batchID string, records []reconcile.Record) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchCommitted")
	defer span.End()

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	event := &BatchCommittedEvent{
		BaseEvent: e.base(ctx, EventTypeBatchCommitted, kind),
		BatchID:   batchID,
		RecordIDs: ids,
	}

	if err := e.producer.Publish(ctx, batchID, event, eventHeaders(event.BaseEvent)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit import.batch_committed event")
		return err
	}
	return nil
}

// EmitCandidateBlocked emits an import.candidate_blocked event
func (e *Emitter) EmitCandidateBlocked(ctx context.Context, kind, batchID string, classified *reconcile.Classified) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCandidateBlocked")
	defer span.End()

	event := &CandidateBlockedEvent{
		BaseEvent:     e.base(ctx, EventTypeCandidateBlocked, kind),
		CandidateName: classified.Name,
		Status:        classified.Status(),
		BatchID:       batchID,
	}
	if classified.ExactMatchID != "" {
		event.MatchedID = classified.ExactMatchID
	} else if classified.FuzzyMatch != nil && classified.FuzzyMatch.Record != nil {
		event.MatchedID = classified.FuzzyMatch.Record.ID
	}

	if err := e.producer.Publish(ctx, classified.Slug, event, eventHeaders(event.BaseEvent)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit import.candidate_blocked event")
		return err
	}
	return nil
}

// EmitBatchRejected emits an import.batch_rejected event
func (e *Emitter) EmitBatchRejected(ctx context.Context, kind, batchID, reason string) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchRejected")
	defer span.End()

	event := &BatchRejectedEvent{
		BaseEvent: e.base(ctx, EventTypeBatchRejected, kind),
		BatchID:   batchID,
		Reason:    reason,
	}

	if err := e.producer.Publish(ctx, batchID, event, eventHeaders(event.BaseEvent)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit import.batch_rejected event")
		return err
	}
	return nil
}

func eventHeaders(base BaseEvent) map[string]string {
	return map[string]string{
		"event_type":     string(base.EventType),
		"kind":           base.Kind,
		"schema_version": base.SchemaVersion,
	}
}
