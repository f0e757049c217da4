package graph

import (
	"strings"

	"loreweave/pkg/common"
)

// NormalizeLabel produces the case-insensitive key used by the label index.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Index maintains the secondary indices over the node set: by type, by
// entity kind, by parent, by blueprint, by normalized label and by source
// document. Every store mutation updates the index synchronously; after
// any mutation the index reflects exactly the current attribute values of
// every node.
type Index struct {
	byType      map[common.NodeType]map[string]struct{}
	byKind      map[string]map[string]struct{}
	byParent    map[string]map[string]struct{}
	byBlueprint map[string]map[string]struct{}
	byLabel     map[string]map[string]struct{}
	bySource    map[string]map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		byType:      make(map[common.NodeType]map[string]struct{}),
		byKind:      make(map[string]map[string]struct{}),
		byParent:    make(map[string]map[string]struct{}),
		byBlueprint: make(map[string]map[string]struct{}),
		byLabel:     make(map[string]map[string]struct{}),
		bySource:    make(map[string]map[string]struct{}),
	}
}

func addToSet(m map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFromSet(m map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m, key)
	}
}

// IndexNode inserts a node into every applicable index.
func (ix *Index) IndexNode(n *common.Node) {
	set, ok := ix.byType[n.Type]
	if !ok {
		set = make(map[string]struct{})
		ix.byType[n.Type] = set
	}
	set[n.ID] = struct{}{}

	addToSet(ix.byKind, n.EntityKind, n.ID)
	addToSet(ix.byParent, n.ParentID, n.ID)
	addToSet(ix.byBlueprint, n.BlueprintID, n.ID)
	addToSet(ix.byLabel, NormalizeLabel(n.Label), n.ID)
	addToSet(ix.bySource, n.SourceNoteID, n.ID)
}

// UnindexNode removes a node from every index it appears in.
func (ix *Index) UnindexNode(n *common.Node) {
	if set, ok := ix.byType[n.Type]; ok {
		delete(set, n.ID)
		if len(set) == 0 {
			delete(ix.byType, n.Type)
		}
	}

	removeFromSet(ix.byKind, n.EntityKind, n.ID)
	removeFromSet(ix.byParent, n.ParentID, n.ID)
	removeFromSet(ix.byBlueprint, n.BlueprintID, n.ID)
	removeFromSet(ix.byLabel, NormalizeLabel(n.Label), n.ID)
	removeFromSet(ix.bySource, n.SourceNoteID, n.ID)
}

// UpdateNodeIndex reconciles the index after a node update by diffing the
// indexed fields of the old and new snapshots. Only changed fields are
// touched, so updates stay O(1) instead of rescanning whole indices.
func (ix *Index) UpdateNodeIndex(old, updated *common.Node) {
	if old.Type != updated.Type {
		if set, ok := ix.byType[old.Type]; ok {
			delete(set, old.ID)
			if len(set) == 0 {
				delete(ix.byType, old.Type)
			}
		}
		set, ok := ix.byType[updated.Type]
		if !ok {
			set = make(map[string]struct{})
			ix.byType[updated.Type] = set
		}
		set[updated.ID] = struct{}{}
	}

	if old.EntityKind != updated.EntityKind {
		removeFromSet(ix.byKind, old.EntityKind, old.ID)
		addToSet(ix.byKind, updated.EntityKind, updated.ID)
	}
	if old.ParentID != updated.ParentID {
		removeFromSet(ix.byParent, old.ParentID, old.ID)
		addToSet(ix.byParent, updated.ParentID, updated.ID)
	}
	if old.BlueprintID != updated.BlueprintID {
		removeFromSet(ix.byBlueprint, old.BlueprintID, old.ID)
		addToSet(ix.byBlueprint, updated.BlueprintID, updated.ID)
	}
	oldLabel, newLabel := NormalizeLabel(old.Label), NormalizeLabel(updated.Label)
	if oldLabel != newLabel {
		removeFromSet(ix.byLabel, oldLabel, old.ID)
		addToSet(ix.byLabel, newLabel, updated.ID)
	}
	if old.SourceNoteID != updated.SourceNoteID {
		removeFromSet(ix.bySource, old.SourceNoteID, old.ID)
		addToSet(ix.bySource, updated.SourceNoteID, updated.ID)
	}
}

func idsOf(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ByType returns the ids of all nodes with the given type.
func (ix *Index) ByType(t common.NodeType) []string {
	return idsOf(ix.byType[t])
}

// ByKind returns the ids of all nodes with the given entity kind.
func (ix *Index) ByKind(kind string) []string {
	return idsOf(ix.byKind[kind])
}

// ByParent returns the ids of all nodes contained in the given parent.
func (ix *Index) ByParent(parentID string) []string {
	return idsOf(ix.byParent[parentID])
}

// ByBlueprint returns the ids of all nodes created from the given blueprint.
func (ix *Index) ByBlueprint(blueprintID string) []string {
	return idsOf(ix.byBlueprint[blueprintID])
}

// ByLabel returns the ids of all nodes whose normalized label matches.
func (ix *Index) ByLabel(label string) []string {
	return idsOf(ix.byLabel[NormalizeLabel(label)])
}

// BySourceNote returns the ids of all nodes originating from a document.
func (ix *Index) BySourceNote(noteID string) []string {
	return idsOf(ix.bySource[noteID])
}

// SearchByLabel looks up nodes by label. Exact mode is a single index
// lookup; fuzzy mode scans every distinct label for a substring match
// and costs O(number of distinct labels).
func (ix *Index) SearchByLabel(query string, fuzzy bool) []string {
	key := NormalizeLabel(query)
	if !fuzzy {
		return idsOf(ix.byLabel[key])
	}

	var out []string
	for label, set := range ix.byLabel {
		if strings.Contains(label, key) {
			out = append(out, idsOf(set)...)
		}
	}
	return out
}

// RebuildFromNodes clears the index and repopulates it from scratch. This
// is the authoritative consistency check: incremental maintenance must
// produce exactly the same indices as a full rebuild.
func (ix *Index) RebuildFromNodes(nodes []*common.Node) {
	ix.byType = make(map[common.NodeType]map[string]struct{})
	ix.byKind = make(map[string]map[string]struct{})
	ix.byParent = make(map[string]map[string]struct{})
	ix.byBlueprint = make(map[string]map[string]struct{})
	ix.byLabel = make(map[string]map[string]struct{})
	ix.bySource = make(map[string]map[string]struct{})

	for _, n := range nodes {
		ix.IndexNode(n)
	}
}
