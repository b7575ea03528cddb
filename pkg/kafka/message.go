package kafka

import (
	"encoding/json"
	"time"

	"github.com/edunigo/sprout/pkg/reconcile"
)

// SuggestionBatchMessage is a batch of AI-suggested candidates for one entity
// kind and scope, produced by the extraction pipeline.
type SuggestionBatchMessage struct {
	BatchID    string                `json:"batch_id"`
	Kind       string                `json:"kind"`
	ScopeKeys  []string              `json:"scope_keys"`
	Candidates []reconcile.Candidate `json:"candidates"`
	Source     string                `json:"source,omitempty"` // ai, crawler, manual
	AdminID    string                `json:"admin_id,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// IncomingMessage is a raw consumed Kafka message plus its parsed payload.
type IncomingMessage struct {
	Key       string            `json:"key"`
	Value     json.RawMessage   `json:"value"`
	Headers   map[string]string `json:"headers"`
	Partition int               `json:"partition"`
	Offset    int64             `json:"offset"`
	Timestamp time.Time         `json:"timestamp"`
	Topic     string            `json:"topic"`

	SuggestionBatch *SuggestionBatchMessage `json:"-"`
}

// ParseSuggestionBatch parses the message value as a suggestion batch.
func (m *IncomingMessage) ParseSuggestionBatch() error {
	var batch SuggestionBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	m.SuggestionBatch = &batch
	return nil
}
