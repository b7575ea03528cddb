package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunigo/sprout/pkg/kafka"
	"github.com/edunigo/sprout/pkg/reconcile"
)

type fakeService struct {
	classified []reconcile.Classified
	imported   [][]reconcile.Classified
}

func (f *fakeService) Classify(ctx context.Context, kind string, candidates []reconcile.Candidate) ([]reconcile.Classified, error) {
	return f.classified, nil
}

func (f *fakeService) ImportBatch(ctx context.Context, kind, batchID string, candidates []reconcile.Classified) ([]reconcile.Record, error) {
	f.imported = append(f.imported, candidates)
	return nil, nil
}

func newTestProcessor(cfg Config, service ImportService) *Processor {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewProcessor(cfg, service, nil, logger)
}

func suggestionMessage(t *testing.T, batch *kafka.SuggestionBatchMessage) *kafka.IncomingMessage {
	t.Helper()
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	msg := &kafka.IncomingMessage{Value: data}
	require.NoError(t, msg.ParseSuggestionBatch())
	return msg
}

func TestProcessMessage_NoBatchIsNoop(t *testing.T) {
	service := &fakeService{}
	p := newTestProcessor(DefaultConfig(), service)

	err := p.ProcessMessage(context.Background(), &kafka.IncomingMessage{})
	assert.NoError(t, err)
	assert.Empty(t, service.imported)
}

func TestProcessMessage_UnknownKindIsDropped(t *testing.T) {
	service := &fakeService{}
	p := newTestProcessor(DefaultConfig(), service)

	msg := suggestionMessage(t, &kafka.SuggestionBatchMessage{
		BatchID: "b1",
		Kind:    "faculty",
	})

	err := p.ProcessMessage(context.Background(), msg)
	assert.NoError(t, err)
	assert.Empty(t, service.imported)
}

func TestProcessMessage_AutoImportCommitsImportables(t *testing.T) {
	service := &fakeService{classified: []reconcile.Classified{
		{Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}}},
		{
			Candidate: reconcile.Candidate{Name: "Vancouver", ScopeKeys: []string{"country1"}},
			Exists:    true,
		},
	}}
	p := newTestProcessor(Config{AutoImport: true}, service)

	msg := suggestionMessage(t, &kafka.SuggestionBatchMessage{
		BatchID:   "b1",
		Kind:      reconcile.KindCity,
		ScopeKeys: []string{"country1"},
		Candidates: []reconcile.Candidate{
			{Name: "Toronto"},
			{Name: "Vancouver"},
		},
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, service.imported, 1)
	require.Len(t, service.imported[0], 1)
	assert.Equal(t, "Toronto", service.imported[0][0].Name)
}

func TestProcessMessage_AutoImportDisabled(t *testing.T) {
	service := &fakeService{classified: []reconcile.Classified{
		{Candidate: reconcile.Candidate{Name: "Toronto", ScopeKeys: []string{"country1"}}},
	}}
	p := newTestProcessor(DefaultConfig(), service)

	msg := suggestionMessage(t, &kafka.SuggestionBatchMessage{
		BatchID:    "b1",
		Kind:       reconcile.KindCity,
		ScopeKeys:  []string{"country1"},
		Candidates: []reconcile.Candidate{{Name: "Toronto"}},
	})

	err := p.ProcessMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, service.imported)
}
