package events

import (
	"time"

	"github.com/edunigo/sprout/pkg/reconcile"
)

// EventType defines the type of event
type EventType string

const (
	// Record events
	EventTypeRecordImported   EventType = "record.imported"
	EventTypeRecordOverridden EventType = "record.overridden"

	// Import events
	EventTypeBatchCommitted   EventType = "import.batch_committed"
	EventTypeCandidateBlocked EventType = "import.candidate_blocked"
	EventTypeBatchRejected    EventType = "import.batch_rejected"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Kind          string    `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
	AdminID       string    `json:"admin_id,omitempty"`
}

// RecordImportedEvent is emitted when a candidate is committed as a new
// catalog record.
type RecordImportedEvent struct {
	BaseEvent
	RecordID string           `json:"record_id"`
	Record   reconcile.Record `json:"record"`
	BatchID  string           `json:"batch_id,omitempty"`
	Source   string           `json:"source,omitempty"`
}

// RecordOverriddenEvent is emitted when an existing record is replaced by a
// reviewed candidate.
type RecordOverriddenEvent struct {
	BaseEvent
	RecordID string           `json:"record_id"`
	Record   reconcile.Record `json:"record"`
}

// BatchCommittedEvent is emitted after an atomic batch import succeeds.
type BatchCommittedEvent struct {
	BaseEvent
	BatchID   string   `json:"batch_id,omitempty"`
	RecordIDs []string `json:"record_ids"`
}

// BatchRejectedEvent is emitted when batch re-validation fails and the whole
// batch is dropped without committing anything.
type BatchRejectedEvent struct {
	BaseEvent
	BatchID string `json:"batch_id,omitempty"`
	Reason  string `json:"reason"`
}

// CandidateBlockedEvent is emitted when classification finds a candidate that
// cannot be imported (already exists or missing a dependency).
type CandidateBlockedEvent struct {
	BaseEvent
	CandidateName string           `json:"candidate_name"`
	Status        reconcile.Status `json:"status"`
	MatchedID     string           `json:"matched_id,omitempty"`
	BatchID       string           `json:"batch_id,omitempty"`
}
