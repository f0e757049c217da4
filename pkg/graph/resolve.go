package graph

import (
	"fmt"
	"strings"

	"loreweave/internal/util"
	"loreweave/pkg/common"
	"loreweave/pkg/logger"
)

// CanonicalEntityID computes the deterministic identity of an extracted
// entity: KIND:NORMALIZED_LABEL, where the label is trimmed, uppercased
// and internal whitespace runs collapse to single underscores. The id is
// independent of which pipeline produced the entity.
func CanonicalEntityID(kind, label string) string {
	return canonicalToken(kind) + ":" + canonicalToken(label)
}

func canonicalToken(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	return strings.ToUpper(strings.Join(fields, "_"))
}

// Resolver merges extracted entities into canonical graph nodes. It
// assumes the single-writer discipline of the store: concurrent
// extraction pipelines must serialize calls into one resolver.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over a graph store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// findEntity looks up an existing ENTITY node by label (via the label
// index) and entity kind. Returns the live node, or nil.
func (r *Resolver) findEntity(label, kind string) *common.Node {
	for _, id := range r.store.index.ByLabel(label) {
		node := r.store.nodes[id]
		if node.Type != common.NodeTypeEntity {
			continue
		}
		if node.EntityKind == kind {
			return node
		}
	}
	return nil
}

// AddExtractedEntity merges one extraction candidate into the graph. If
// an ENTITY node with the same label and kind exists, mention lists are
// concatenated (repeated mentions are meaningful signal, not noise),
// frequencies are summed, and confidence becomes the arithmetic mean of
// the old and new values: both extraction batches are treated as equally
// reliable samples, so no weighting is applied on this path. An existing
// node without an extraction block adopts the incoming confidence
// unchanged. Otherwise a new ENTITY node is created.
func (r *Resolver) AddExtractedEntity(
	label string,
	kind string,
	extraction common.Extraction,
	sourceDocID string,
) (*common.Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("entity label is required")
	}

	for i := range extraction.Mentions {
		if extraction.Mentions[i].DocumentID == "" {
			extraction.Mentions[i].DocumentID = sourceDocID
		}
	}
	if extraction.Frequency == 0 {
		extraction.Frequency = util.Max(len(extraction.Mentions), 1)
	}

	if existing := r.findEntity(label, kind); existing != nil {
		merged := existing.Extraction.Clone()
		if merged == nil {
			// A manually created entity has no prior confidence to
			// average against; the first extraction's value is adopted
			// as is.
			merged = &common.Extraction{
				Method:     extraction.Method,
				Confidence: extraction.Confidence,
			}
		} else {
			merged.Confidence = (merged.Confidence + extraction.Confidence) / 2
		}
		merged.Mentions = append(merged.Mentions, extraction.Mentions...)
		merged.Frequency += extraction.Frequency

		updated, _, err := r.store.UpdateNode(existing.ID, NodeUpdate{Extraction: merged})
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	node, err := r.store.AddNode(NodeAttrs{
		Type:         common.NodeTypeEntity,
		Label:        strings.TrimSpace(label),
		EntityKind:   kind,
		IsEntity:     true,
		SourceNoteID: sourceDocID,
		Extraction:   &extraction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create entity node: %w", err)
	}
	return node, nil
}

// MergedEntity is the result of combining extraction candidates with the
// same canonical id across independent pipeline outputs.
type MergedEntity struct {
	CanonicalID string
	Label       string
	Kind        string
	Subtype     string
	Confidence  float64
	Frequency   int
	Methods     []common.ExtractionMethod
	Mentions    []common.Mention
	Attributes  map[string]any
}

// MergeExtractionResults combines the outputs of multiple extraction
// methods over the same corpus. Candidates are grouped by canonical id;
// per group, frequencies sum, mentions concatenate, method sets union and
// attributes shallow-merge with later values winning. Confidence is the
// mention-count-weighted mean across contributions. The pairwise merge
// in AddExtractedEntity uses a simple mean instead; it has no mention
// counts in hand, so the two call paths keep distinct policies.
func MergeExtractionResults(results []common.ExtractedEntity) []MergedEntity {
	order := make([]string, 0)
	groups := make(map[string]*MergedEntity)
	weights := make(map[string]float64)
	weightedSums := make(map[string]float64)
	plainSums := make(map[string]float64)
	counts := make(map[string]int)

	for i := range results {
		candidate := &results[i]
		cid := CanonicalEntityID(candidate.Kind, candidate.Label)

		group, ok := groups[cid]
		if !ok {
			group = &MergedEntity{
				CanonicalID: cid,
				Label:       strings.TrimSpace(candidate.Label),
				Kind:        candidate.Kind,
				Subtype:     candidate.Subtype,
			}
			groups[cid] = group
			order = append(order, cid)
		}

		group.Frequency += util.Max(len(candidate.Positions), 1)
		group.Mentions = append(group.Mentions, candidate.Positions...)
		if candidate.Subtype != "" {
			group.Subtype = candidate.Subtype
		}

		found := false
		for _, m := range group.Methods {
			if m == candidate.Method {
				found = true
				break
			}
		}
		if !found {
			group.Methods = append(group.Methods, candidate.Method)
		}

		if candidate.Attributes != nil {
			if group.Attributes == nil {
				group.Attributes = make(map[string]any, len(candidate.Attributes))
			}
			for k, v := range candidate.Attributes {
				group.Attributes[k] = v
			}
		}

		mentionWeight := float64(len(candidate.Positions))
		weights[cid] += mentionWeight
		weightedSums[cid] += mentionWeight * candidate.Confidence
		plainSums[cid] += candidate.Confidence
		counts[cid]++
	}

	merged := make([]MergedEntity, 0, len(order))
	for _, cid := range order {
		group := groups[cid]
		if weights[cid] > 0 {
			group.Confidence = weightedSums[cid] / weights[cid]
		} else if counts[cid] > 0 {
			group.Confidence = plainSums[cid] / float64(counts[cid])
		}
		merged = append(merged, *group)
	}
	return merged
}

// ApplyMergedEntities inserts merged extraction results into the graph,
// one node per canonical id, reusing the pairwise merge path for entities
// that already exist from earlier runs.
func (r *Resolver) ApplyMergedEntities(merged []MergedEntity) ([]*common.Node, error) {
	nodes := make([]*common.Node, 0, len(merged))
	err := r.store.Batch(func() error {
		for i := range merged {
			m := &merged[i]

			method := common.MethodManual
			if len(m.Methods) > 0 {
				method = m.Methods[0]
			}
			sourceDocID := ""
			if len(m.Mentions) > 0 {
				sourceDocID = m.Mentions[0].DocumentID
			}

			node, err := r.AddExtractedEntity(m.Label, m.Kind, common.Extraction{
				Method:     method,
				Confidence: m.Confidence,
				Frequency:  m.Frequency,
				Mentions:   m.Mentions,
			}, sourceDocID)
			if err != nil {
				return err
			}

			update := NodeUpdate{}
			dirty := false
			if m.Subtype != "" && node.EntitySubtype != m.Subtype {
				update.EntitySubtype = &m.Subtype
				dirty = true
			}
			props := make(map[string]any)
			for k, v := range m.Attributes {
				props[k] = v
			}
			if len(m.Methods) > 0 {
				methods := make([]string, len(m.Methods))
				for j, mm := range m.Methods {
					methods[j] = string(mm)
				}
				props["extractionMethods"] = methods
			}
			if len(props) > 0 {
				update.Properties = props
				dirty = true
			}
			if dirty {
				node, _, err = r.store.UpdateNode(node.ID, update)
				if err != nil {
					return err
				}
			}

			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nodes, err
	}
	return nodes, nil
}

// MergeEntities folds the source entity into the target: every edge
// incident to source is reassigned onto target (edges that would become
// self-loops are dropped), extraction mentions and frequencies are
// unioned, and source is deleted. Used for manual de-duplication by an
// operator.
func (r *Resolver) MergeEntities(sourceID, targetID string) (*common.Node, error) {
	source, okS := r.store.nodes[sourceID]
	target, okT := r.store.nodes[targetID]
	if !okS || !okT {
		return nil, fmt.Errorf("entities not found")
	}
	if sourceID == targetID {
		return nil, fmt.Errorf("cannot merge an entity into itself")
	}

	incident := make([]string, 0, len(r.store.adjacency[sourceID]))
	for edgeID := range r.store.adjacency[sourceID] {
		incident = append(incident, edgeID)
	}

	for _, edgeID := range incident {
		r.reassignEdge(edgeID, sourceID, targetID)
	}

	if source.Extraction != nil {
		merged := target.Extraction.Clone()
		if merged == nil {
			merged = &common.Extraction{
				Method:     source.Extraction.Method,
				Confidence: source.Extraction.Confidence,
			}
		}
		merged.Mentions = append(merged.Mentions, source.Extraction.Mentions...)
		merged.Frequency += source.Extraction.Frequency
		if _, _, err := r.store.UpdateNode(targetID, NodeUpdate{Extraction: merged}); err != nil {
			return nil, err
		}
	}

	r.store.RemoveNode(sourceID)
	logger.Debug("[Resolve] Merged entities", "source", sourceID, "target", targetID)

	return r.store.GetNode(targetID), nil
}

// reassignEdge moves one endpoint of an edge from `from` to `to`,
// preserving the derived-edge identity discipline: if an equivalent edge
// already exists on the new endpoints it absorbs this one, and derived
// edges are re-keyed so their id still matches their endpoints.
func (r *Resolver) reassignEdge(edgeID, from, to string) {
	edge := r.store.edges[edgeID]
	if edge == nil {
		return
	}

	newSource, newTarget := edge.Source, edge.Target
	if newSource == from {
		newSource = to
	}
	if newTarget == from {
		newTarget = to
	}
	if newSource == newTarget {
		r.store.removeEdgeInternal(edgeID)
		return
	}

	for _, existing := range r.store.GetEdgesBetween(newSource, newTarget) {
		if existing.ID == edgeID || existing.Type != edge.Type {
			continue
		}
		update := EdgeUpdate{
			NoteIDs:           edge.NoteIDs,
			ExtractionMethods: edge.ExtractionMethods,
		}
		weight := existing.Weight + edge.Weight
		confidence := (existing.Confidence + edge.Confidence) / 2
		update.Weight = &weight
		update.Confidence = &confidence
		r.store.UpdateEdge(existing.ID, update)
		r.store.removeEdgeInternal(edgeID)
		return
	}

	wasDerived := edgeID == DerivedEdgeID(edge.Source, edge.Target, edge.Type)

	clone := edge.Clone()
	r.store.removeEdgeInternal(edgeID)

	attrs := EdgeAttrs{
		Source:            newSource,
		Target:            newTarget,
		Type:              clone.Type,
		Weight:            clone.Weight,
		Confidence:        clone.Confidence,
		NoteIDs:           clone.NoteIDs,
		ExtractionMethods: clone.ExtractionMethods,
		Bidirectional:     clone.Bidirectional,
		Properties:        clone.Properties,
	}
	if wasDerived {
		attrs.ID = DerivedEdgeID(newSource, newTarget, clone.Type)
	} else {
		attrs.ID = clone.ID
	}
	if _, err := r.store.AddEdge(attrs); err != nil {
		logger.Warn("[Resolve] Failed to reassign edge", "edge", edgeID, "err", err)
	}
}
