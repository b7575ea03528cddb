package events

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sproutcontext "github.com/edunigo/sprout/pkg/context"
	"github.com/edunigo/sprout/pkg/reconcile"
)

type published struct {
	key     string
	payload any
	headers map[string]string
}

type capturePublisher struct {
	published []published
	err       error
}

func (p *capturePublisher) Publish(ctx context.Context, key string, payload any, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, published{key: key, payload: payload, headers: headers})
	return nil
}

func newTestEmitter(publisher Publisher) *Emitter {
	return NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestEmitBatchRejected(t *testing.T) {
	publisher := &capturePublisher{}
	emitter := newTestEmitter(publisher)

	ctx := sproutcontext.SetAdminID(context.Background(), "admin-7")
	err := emitter.EmitBatchRejected(ctx, "course", "batch-42", "dependency education_level is unresolved")

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)

	msg := publisher.published[0]
	assert.Equal(t, "batch-42", msg.key)
	assert.Equal(t, string(EventTypeBatchRejected), msg.headers["event_type"])
	assert.Equal(t, "course", msg.headers["kind"])
	assert.Equal(t, SchemaVersion, msg.headers["schema_version"])

	event, ok := msg.payload.(*BatchRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, "batch-42", event.BatchID)
	assert.Equal(t, "dependency education_level is unresolved", event.Reason)
	assert.Equal(t, "admin-7", event.AdminID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEmitBatchRejected_PublishError(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker unavailable")}
	emitter := newTestEmitter(publisher)

	err := emitter.EmitBatchRejected(context.Background(), "course", "batch-42", "validation failed")

	require.Error(t, err)
	assert.Empty(t, publisher.published)
}

func TestEmitRecordImported(t *testing.T) {
	publisher := &capturePublisher{}
	emitter := newTestEmitter(publisher)

	record := &reconcile.Record{ID: "9", Name: "Trinity College Dublin", Slug: "trinity-college-dublin"}
	err := emitter.EmitRecordImported(context.Background(), "university", record, "batch-1", "manual")

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "9", publisher.published[0].key)
	assert.Equal(t, string(EventTypeRecordImported), publisher.published[0].headers["event_type"])

	event, ok := publisher.published[0].payload.(*RecordImportedEvent)
	require.True(t, ok)
	assert.Equal(t, "trinity-college-dublin", event.Record.Slug)
	assert.Equal(t, "batch-1", event.BatchID)
	assert.Equal(t, "manual", event.Source)
}

func TestNilEmitterIsNoop(t *testing.T) {
	var emitter *Emitter

	assert.NoError(t, emitter.EmitBatchRejected(context.Background(), "course", "b1", "reason"))
	assert.NoError(t, emitter.EmitBatchCommitted(context.Background(), "course", "b1", nil))
	assert.NoError(t, emitter.EmitRecordImported(context.Background(), "course", &reconcile.Record{}, "b1", "manual"))
}
