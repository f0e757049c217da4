package graph

import (
	"fmt"
	"math"
	"sort"

	"loreweave/pkg/common"
	"loreweave/pkg/logger"
)

// DerivedEdgeID returns the order-independent identity key for a derived
// edge between two nodes: min(a,b) + "--" + max(a,b) + "::" + type.
// Discovering the same pair twice, in either order, resolves to the same
// key, so derivation updates the existing edge instead of duplicating it.
func DerivedEdgeID(a, b, edgeType string) string {
	if b < a {
		a, b = b, a
	}
	return a + "--" + b + "::" + edgeType
}

const windowKeysProperty = "windowKeys"

// CooccurrenceBuilder derives CO_OCCURS edges from entity mention
// windows. Document sets per entity are cached against the store's
// generation counter, so a builder can be reused across calls and
// invalidates itself after any mutation.
type CooccurrenceBuilder struct {
	store *Store

	cachedGen  uint64
	entityDocs map[string]map[string]struct{}
}

// NewCooccurrenceBuilder creates a builder over a graph store.
func NewCooccurrenceBuilder(store *Store) *CooccurrenceBuilder {
	return &CooccurrenceBuilder{store: store}
}

// docsByEntity maps each ENTITY node id to the set of documents its
// mentions appear in.
func (b *CooccurrenceBuilder) docsByEntity() map[string]map[string]struct{} {
	if b.entityDocs != nil && b.cachedGen == b.store.Generation() {
		return b.entityDocs
	}

	docs := make(map[string]map[string]struct{})
	for _, id := range b.store.index.ByType(common.NodeTypeEntity) {
		node := b.store.nodes[id]
		if node.Extraction == nil {
			continue
		}
		set := make(map[string]struct{})
		for _, m := range node.Extraction.Mentions {
			if m.DocumentID != "" {
				set[m.DocumentID] = struct{}{}
			}
		}
		if len(set) > 0 {
			docs[id] = set
		}
	}

	b.entityDocs = docs
	b.cachedGen = b.store.Generation()
	return docs
}

// DocumentCount returns the number of distinct documents any entity
// mention references. Callers that track their corpus size externally
// should prefer that number for PMI scoring.
func (b *CooccurrenceBuilder) DocumentCount() int {
	seen := make(map[string]struct{})
	for _, docs := range b.docsByEntity() {
		for doc := range docs {
			seen[doc] = struct{}{}
		}
	}
	return len(seen)
}

// BuildNoteLevel derives CO_OCCURS edges for every unordered entity pair
// sharing a document. Each shared document contributes one weight unit
// exactly once: re-running over the same data never double counts.
// Returns the number of edges created or updated.
func (b *CooccurrenceBuilder) BuildNoteLevel() (int, error) {
	groups := make(map[string][]string)
	for entityID, docs := range b.docsByEntity() {
		for doc := range docs {
			groups[doc] = append(groups[doc], entityID)
		}
	}

	touched := 0
	err := b.store.Batch(func() error {
		for doc, members := range groups {
			changed, err := b.linkGroup(members, doc, doc)
			if err != nil {
				return err
			}
			touched += changed
		}
		return nil
	})
	if err != nil {
		return touched, err
	}

	logger.Debug("[Cooccur] Note-level pass completed", "documents", len(groups), "edges_touched", touched)
	return touched, nil
}

// BuildSentenceLevel derives CO_OCCURS edges for entity mentions sharing
// a (document, sentence) window. Mentions without a sentence index are
// excluded. The contributing document id is still recorded on the edge;
// idempotence is tracked per sentence window.
func (b *CooccurrenceBuilder) BuildSentenceLevel() (int, error) {
	type window struct {
		doc      string
		sentence int
	}
	groups := make(map[window]map[string]struct{})

	for _, id := range b.store.index.ByType(common.NodeTypeEntity) {
		node := b.store.nodes[id]
		if node.Extraction == nil {
			continue
		}
		for _, m := range node.Extraction.Mentions {
			if m.DocumentID == "" || m.SentenceIndex == nil {
				continue
			}
			w := window{doc: m.DocumentID, sentence: *m.SentenceIndex}
			set, ok := groups[w]
			if !ok {
				set = make(map[string]struct{})
				groups[w] = set
			}
			set[id] = struct{}{}
		}
	}

	touched := 0
	err := b.store.Batch(func() error {
		for w, set := range groups {
			members := make([]string, 0, len(set))
			for id := range set {
				members = append(members, id)
			}
			key := fmt.Sprintf("%s#%d", w.doc, w.sentence)
			changed, err := b.linkGroup(members, w.doc, key)
			if err != nil {
				return err
			}
			touched += changed
		}
		return nil
	})
	if err != nil {
		return touched, err
	}

	logger.Debug("[Cooccur] Sentence-level pass completed", "windows", len(groups), "edges_touched", touched)
	return touched, nil
}

// linkGroup upserts a CO_OCCURS edge for every unordered pair in the
// group, crediting docID and counting the window at most once per edge.
func (b *CooccurrenceBuilder) linkGroup(members []string, docID, windowKey string) (int, error) {
	sort.Strings(members)

	touched := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			changed, err := b.upsertCoOccurrence(members[i], members[j], docID, windowKey)
			if err != nil {
				return touched, err
			}
			if changed {
				touched++
			}
		}
	}
	return touched, nil
}

// windowKeysOf reads the window ledger off an edge. Snapshots decode
// property arrays as []any, so both representations are accepted.
func windowKeysOf(edge *common.Edge) []string {
	if edge.Properties == nil {
		return nil
	}
	switch v := edge.Properties[windowKeysProperty].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, k := range v {
			if key, ok := k.(string); ok {
				out = append(out, key)
			}
		}
		return out
	}
	return nil
}

func (b *CooccurrenceBuilder) upsertCoOccurrence(a, c, docID, windowKey string) (bool, error) {
	id := DerivedEdgeID(a, c, common.EdgeTypeCoOccurs)

	if existing, ok := b.store.edges[id]; ok {
		for _, key := range windowKeysOf(existing) {
			if key == windowKey {
				return false, nil
			}
		}
		weight := existing.Weight + 1
		keys := append(windowKeysOf(existing), windowKey)
		b.store.UpdateEdge(id, EdgeUpdate{
			Weight:     &weight,
			NoteIDs:    []string{docID},
			Properties: map[string]any{windowKeysProperty: keys},
		})
		return true, nil
	}

	if c < a {
		a, c = c, a
	}
	_, err := b.store.AddEdge(EdgeAttrs{
		ID:            id,
		Source:        a,
		Target:        c,
		Type:          common.EdgeTypeCoOccurs,
		Weight:        1,
		Bidirectional: true,
		NoteIDs:       []string{docID},
		Properties:    map[string]any{windowKeysProperty: []string{windowKey}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to create co-occurrence edge: %w", err)
	}
	return true, nil
}

// ScorePMI computes pointwise mutual information for every CO_OCCURS
// edge given the corpus size:
//
//	pmi = log2( (co/N) / ((freqA/N) * (freqB/N)) )
//
// where freqA and freqB are document frequencies and co is the number of
// shared documents. Edges where any probability is zero are left
// unscored to avoid log(0). Returns the number of edges scored.
func (b *CooccurrenceBuilder) ScorePMI(totalDocuments int) int {
	if totalDocuments <= 0 {
		return 0
	}

	docs := b.docsByEntity()
	n := float64(totalDocuments)
	scored := 0

	for id, edge := range b.store.edges {
		if edge.Type != common.EdgeTypeCoOccurs {
			continue
		}
		freqA := float64(len(docs[edge.Source]))
		freqB := float64(len(docs[edge.Target]))
		co := float64(len(edge.NoteIDs))
		if freqA == 0 || freqB == 0 || co == 0 {
			continue
		}

		pmi := math.Log2((co / n) / ((freqA / n) * (freqB / n)))
		b.store.UpdateEdge(id, EdgeUpdate{Properties: map[string]any{"pmi": pmi}})
		scored++
	}

	return scored
}
