package graph

import (
	"fmt"

	"loreweave/pkg/common"
	"loreweave/pkg/logger"
)

// AddExtractedRelationship merges one relationship candidate into the
// graph. Endpoints are resolved by label and kind; candidates whose
// endpoints are not (yet) present in the graph are skipped, not errors.
// The pipelines emit relationships against entities from the same batch,
// so a missing endpoint means the entity was filtered out upstream.
//
// Edge identity follows the same order-independent key discipline as
// co-occurrence, additionally keyed by relationship type: OWNS and
// CO_OCCURS between the same pair are distinct edges. Re-discovering a
// relationship accumulates weight, averages confidence, and unions
// extraction methods and note ids.
func (r *Resolver) AddExtractedRelationship(rel common.ExtractedRelationship) (*common.Edge, error) {
	if rel.RelationshipType == "" {
		return nil, fmt.Errorf("relationship type is required")
	}

	source := r.findEntity(rel.SourceLabel, rel.SourceKind)
	target := r.findEntity(rel.TargetLabel, rel.TargetKind)
	if source == nil || target == nil {
		logger.Debug(
			"[Resolve] Skipping relationship with unresolved endpoints",
			"source", rel.SourceLabel,
			"target", rel.TargetLabel,
			"type", rel.RelationshipType,
		)
		return nil, nil
	}
	if source.ID == target.ID {
		return nil, nil
	}

	weight := rel.Weight
	if weight == 0 {
		weight = 1
	}

	id := DerivedEdgeID(source.ID, target.ID, rel.RelationshipType)
	if existing, ok := r.store.edges[id]; ok {
		newWeight := existing.Weight + weight
		newConfidence := (existing.Confidence + rel.Confidence) / 2
		updated, _ := r.store.UpdateEdge(id, EdgeUpdate{
			Weight:            &newWeight,
			Confidence:        &newConfidence,
			NoteIDs:           rel.NoteIDs,
			ExtractionMethods: []common.ExtractionMethod{rel.Method},
		})
		return updated, nil
	}

	a, b := source.ID, target.ID
	edge, err := r.store.AddEdge(EdgeAttrs{
		ID:                id,
		Source:            a,
		Target:            b,
		Type:              rel.RelationshipType,
		Weight:            weight,
		Confidence:        rel.Confidence,
		NoteIDs:           rel.NoteIDs,
		ExtractionMethods: []common.ExtractionMethod{rel.Method},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship edge: %w", err)
	}
	return edge, nil
}

// ApplyExtractionResult validates and merges one full pipeline result:
// entities first (grouped by canonical id), then relationships against
// the resolved entity set.
func (r *Resolver) ApplyExtractionResult(result *common.ExtractionResult) ([]*common.Node, []*common.Edge, error) {
	if err := common.ValidateResult(result); err != nil {
		return nil, nil, err
	}

	merged := MergeExtractionResults(result.Entities)
	nodes, err := r.ApplyMergedEntities(merged)
	if err != nil {
		return nodes, nil, err
	}

	var edges []*common.Edge
	err = r.store.Batch(func() error {
		for i := range result.Relationships {
			edge, err := r.AddExtractedRelationship(result.Relationships[i])
			if err != nil {
				return err
			}
			if edge != nil {
				edges = append(edges, edge)
			}
		}
		return nil
	})
	if err != nil {
		return nodes, edges, err
	}

	logger.Info(
		"[Resolve] Extraction result applied",
		"entities", len(nodes),
		"relationships", len(edges),
	)
	return nodes, edges, nil
}
