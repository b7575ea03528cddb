package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/tracing"
)

// Projector mirrors imported catalog records into the graph so the admin UI
// can render the country/university/campus/course hierarchy. Projection is
// best-effort: failures are logged, never propagated, since Postgres is the
// source of truth. A nil Projector is a no-op.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

// NewProjector creates a new catalog projector
func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

var nodeLabels = map[string]string{
	reconcile.KindCity:       "City",
	reconcile.KindUniversity: "University",
	reconcile.KindCampus:     "Campus",
	reconcile.KindCourse:     "Course",
	reconcile.KindIntake:     "Intake",
}

// parentEdges maps an entity kind to the relationship and parent label for
// its primary scope key.
var parentEdges = map[string]struct {
	rel         string
	parentLabel string
}{
	reconcile.KindCity:       {rel: "IN_COUNTRY", parentLabel: "Country"},
	reconcile.KindUniversity: {rel: "IN_COUNTRY", parentLabel: "Country"},
	reconcile.KindCampus:     {rel: "CAMPUS_OF", parentLabel: "University"},
	reconcile.KindCourse:     {rel: "OFFERED_AT", parentLabel: "Campus"},
	reconcile.KindIntake:     {rel: "INTAKE_OF", parentLabel: "Course"},
}

var dependencyEdges = map[string]struct {
	rel         string
	parentLabel string
}{
	reconcile.DepCity:           {rel: "IN_CITY", parentLabel: "City"},
	reconcile.DepEducationLevel: {rel: "LEVEL", parentLabel: "EducationLevel"},
	reconcile.DepMajor:          {rel: "MAJOR", parentLabel: "Major"},
}

// ProjectRecord upserts the node for an imported record and its edges to the
// parent scope node and any linked lookup nodes.
func (p *Projector) ProjectRecord(ctx context.Context, kind string, record *reconcile.Record) {
	if p == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectRecord")
	defer span.End()

	label, ok := nodeLabels[kind]
	if !ok {
		return
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"record_id": record.ID,
		"kind":      kind,
	})

	props := map[string]any{
		"id":   record.ID,
		"name": record.Name,
		"slug": record.Slug,
	}
	for k, v := range record.Attributes {
		props[k] = v
	}

	cypher := fmt.Sprintf(`
		MERGE (n:%s {id: $id})
		SET n = $props
		RETURN n
	`, label)

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":    record.ID,
			"props": props,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to project record node")
		return
	}

	if edge, ok := parentEdges[kind]; ok && len(record.ScopeKeys) > 0 {
		p.mergeEdge(ctx, label, record.ID, edge.rel, edge.parentLabel, record.ScopeKeys[0])
	}
	for depKind, depID := range record.DependencyIDs {
		if edge, ok := dependencyEdges[depKind]; ok {
			p.mergeEdge(ctx, label, record.ID, edge.rel, edge.parentLabel, depID)
		}
	}

	log.Debug("Projected record into graph")
}

func (p *Projector) mergeEdge(ctx context.Context, label, id, rel, parentLabel, parentID string) {
	cypher := fmt.Sprintf(`
		MATCH (n:%s {id: $id})
		MERGE (m:%s {id: $parent_id})
		MERGE (n)-[:%s]->(m)
	`, label, parentLabel, rel)

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":        id,
			"parent_id": parentID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": id,
			"rel":       rel,
		}).Error("Failed to project record edge")
	}
}
