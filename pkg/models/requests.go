package models

import "github.com/edunigo/sprout/pkg/reconcile"

// ClassifyRequest carries a batch of AI-suggested candidates for one entity
// kind. Scope keys and dependency refs ride on each candidate.
type ClassifyRequest struct {
	Candidates []reconcile.Candidate `json:"candidates" validate:"required,min=1,dive"`
}

// ClassifyResponse returns the classified candidates in request order.
type ClassifyResponse struct {
	Kind  string                 `json:"kind"`
	Items []reconcile.Classified `json:"items"`
}

// ImportRequest imports a single classified candidate as a new record.
type ImportRequest struct {
	Candidate reconcile.Classified `json:"candidate" validate:"required"`
}

// OverrideRequest replaces the mutable fields of an existing record.
type OverrideRequest struct {
	Candidate reconcile.Classified `json:"candidate" validate:"required"`
}

// BatchImportRequest imports a list of classified candidates atomically.
type BatchImportRequest struct {
	Candidates []reconcile.Classified `json:"candidates" validate:"required,min=1,dive"`
}

// BatchImportResponse returns the committed records in request order.
type BatchImportResponse struct {
	Kind    string             `json:"kind"`
	Records []reconcile.Record `json:"records"`
}

// SuggestRequest asks the AI suggester for candidate records of one kind
// within a scope.
type SuggestRequest struct {
	Prompt    string            `json:"prompt" validate:"required"`
	ScopeKeys []string          `json:"scope_keys" validate:"required,min=1"`
	Context   map[string]string `json:"context,omitempty"`
}

// SuggestResponse returns the AI-suggested candidates, already classified.
type SuggestResponse struct {
	Kind  string                 `json:"kind"`
	Items []reconcile.Classified `json:"items"`
}
