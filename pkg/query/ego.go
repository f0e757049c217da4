package query

import (
	"sort"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

// Subgraph is an immutable node/edge snapshot returned by subgraph
// queries. Mutating the contents does not affect the store.
type Subgraph struct {
	Nodes []*common.Node `json:"nodes"`
	Edges []*common.Edge `json:"edges"`
}

// EgoNetwork extracts the induced neighborhood of a focal node out to
// the given hop radius. With includeNeighborEdges set, edges between
// same-radius neighbors are included as well; otherwise only the BFS
// tree edges that discovered each node are returned.
func EgoNetwork(s *graph.Store, centerID string, radius int, includeNeighborEdges bool) *Subgraph {
	center := s.GetNode(centerID)
	if center == nil {
		return nil
	}
	if radius < 1 {
		radius = 1
	}

	adj := buildAdjacency(s)

	members := map[string]struct{}{centerID: {}}
	depth := map[string]int{centerID: 0}
	treeEdges := make(map[string]*common.Edge)
	queue := []string{centerID}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if depth[v] >= radius {
			continue
		}
		for _, edge := range sortedEdges(adj[v]) {
			w := step(edge, v, DirectionBoth)
			if w == "" {
				continue
			}
			if _, seen := members[w]; seen {
				continue
			}
			members[w] = struct{}{}
			depth[w] = depth[v] + 1
			treeEdges[edge.ID] = edge
			queue = append(queue, w)
		}
	}

	sub := &Subgraph{}
	memberIDs := make([]string, 0, len(members))
	for id := range members {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)
	for _, id := range memberIDs {
		sub.Nodes = append(sub.Nodes, s.GetNode(id))
	}

	if includeNeighborEdges {
		seen := make(map[string]struct{})
		for _, id := range memberIDs {
			for _, edge := range adj[id] {
				if _, dup := seen[edge.ID]; dup {
					continue
				}
				_, okS := members[edge.Source]
				_, okT := members[edge.Target]
				if okS && okT {
					seen[edge.ID] = struct{}{}
					sub.Edges = append(sub.Edges, edge)
				}
			}
		}
	} else {
		for _, edge := range treeEdges {
			sub.Edges = append(sub.Edges, edge)
		}
	}
	sort.Slice(sub.Edges, func(i, j int) bool { return sub.Edges[i].ID < sub.Edges[j].ID })

	return sub
}

// InducedSubgraph returns the given nodes plus every edge whose both
// endpoints are in the set. Unknown ids are ignored.
func InducedSubgraph(s *graph.Store, ids []string) *Subgraph {
	members := make(map[string]struct{}, len(ids))
	sub := &Subgraph{}
	for _, id := range ids {
		if node := s.GetNode(id); node != nil {
			if _, dup := members[id]; dup {
				continue
			}
			members[id] = struct{}{}
			sub.Nodes = append(sub.Nodes, node)
		}
	}

	for _, edge := range s.Edges() {
		_, okS := members[edge.Source]
		_, okT := members[edge.Target]
		if okS && okT {
			sub.Edges = append(sub.Edges, edge)
		}
	}
	sort.Slice(sub.Edges, func(i, j int) bool { return sub.Edges[i].ID < sub.Edges[j].ID })
	return sub
}

// Neighborhood returns the nodes within maxDepth hops of a node,
// including the node itself.
func Neighborhood(s *graph.Store, id string, maxDepth int) []*common.Node {
	order := BFS(s, id, Options{MaxDepth: maxDepth})
	out := make([]*common.Node, 0, len(order))
	for _, nodeID := range order {
		out = append(out, s.GetNode(nodeID))
	}
	return out
}
