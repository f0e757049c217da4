package query

import (
	"sort"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

// Children returns the direct children of a container node, sorted by
// label for stable presentation.
func Children(s *graph.Store, parentID string) []*common.Node {
	ids := s.Index().ByParent(parentID)
	out := make([]*common.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.GetNode(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Descendants returns every node transitively contained in the given
// container.
func Descendants(s *graph.Store, parentID string) []*common.Node {
	var out []*common.Node
	queue := []string{parentID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range Children(s, current) {
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out
}

// Ancestors walks the parent chain from a node to its root, nearest
// parent first. A dangling parent reference (the parent was deleted)
// terminates the chain: the node is treated as having no parent.
func Ancestors(s *graph.Store, id string) []*common.Node {
	node := s.GetNode(id)
	if node == nil {
		return nil
	}

	var out []*common.Node
	visited := map[string]struct{}{id: {}}
	for node.ParentID != "" {
		if _, cyclic := visited[node.ParentID]; cyclic {
			break
		}
		parent := s.GetNode(node.ParentID)
		if parent == nil {
			break
		}
		out = append(out, parent)
		visited[parent.ID] = struct{}{}
		node = parent
	}
	return out
}

// Depth returns the number of ancestors above a node; 0 for roots and
// for nodes whose parent reference dangles.
func Depth(s *graph.Store, id string) int {
	return len(Ancestors(s, id))
}

// NodesByType returns snapshots of every node with the given type.
func NodesByType(s *graph.Store, t common.NodeType) []*common.Node {
	ids := s.Index().ByType(t)
	out := make([]*common.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.GetNode(id))
	}
	return out
}

// EntitiesByKind returns snapshots of every entity with the given kind.
func EntitiesByKind(s *graph.Store, kind string) []*common.Node {
	ids := s.Index().ByKind(kind)
	out := make([]*common.Node, 0, len(ids))
	for _, id := range ids {
		node := s.GetNode(id)
		if node.Type == common.NodeTypeEntity {
			out = append(out, node)
		}
	}
	return out
}

// NodesBySourceNote returns snapshots of every node extracted from the
// given document.
func NodesBySourceNote(s *graph.Store, noteID string) []*common.Node {
	ids := s.Index().BySourceNote(noteID)
	out := make([]*common.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.GetNode(id))
	}
	return out
}

// SearchByLabel resolves a label query to node snapshots. Exact mode is
// an index lookup; fuzzy mode substring-scans the distinct labels.
func SearchByLabel(s *graph.Store, query string, fuzzy bool) []*common.Node {
	ids := s.Index().SearchByLabel(query, fuzzy)
	out := make([]*common.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.GetNode(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
