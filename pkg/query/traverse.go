package query

import (
	"sort"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

// Direction controls which edges a traversal may follow.
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionOutgoing
	DirectionIncoming
)

// Options configure a traversal. MaxDepth 0 means unbounded. Filters, if
// set, must return true for a node or edge to be visited or followed.
type Options struct {
	MaxDepth   int
	Direction  Direction
	NodeFilter func(*common.Node) bool
	EdgeFilter func(*common.Edge) bool
}

type adjacency map[string][]*common.Edge

// buildAdjacency snapshots the incident-edge lists once per traversal so
// algorithms never hit the store per step.
func buildAdjacency(s *graph.Store) adjacency {
	adj := make(adjacency)
	for _, edge := range s.Edges() {
		adj[edge.Source] = append(adj[edge.Source], edge)
		if edge.Target != edge.Source {
			adj[edge.Target] = append(adj[edge.Target], edge)
		}
	}
	return adj
}

// step yields the neighbor reached by following an edge from node id
// under the direction rule, or "" if the edge may not be followed.
func step(edge *common.Edge, id string, direction Direction) string {
	switch direction {
	case DirectionOutgoing:
		if edge.Source == id || edge.Bidirectional {
			if edge.Source == id {
				return edge.Target
			}
			return edge.Source
		}
		return ""
	case DirectionIncoming:
		if edge.Target == id || edge.Bidirectional {
			if edge.Target == id {
				return edge.Source
			}
			return edge.Target
		}
		return ""
	default:
		if edge.Source == id {
			return edge.Target
		}
		return edge.Source
	}
}

func sortedEdges(edges []*common.Edge) []*common.Edge {
	out := make([]*common.Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BFS traverses breadth-first from startID and returns the visited node
// ids in visit order. The start node is included unless the node filter
// rejects it.
func BFS(s *graph.Store, startID string, opts Options) []string {
	start := s.GetNode(startID)
	if start == nil {
		return nil
	}
	if opts.NodeFilter != nil && !opts.NodeFilter(start) {
		return nil
	}

	adj := buildAdjacency(s)
	visited := map[string]struct{}{startID: {}}
	depth := map[string]int{startID: 0}
	order := []string{startID}
	queue := []string{startID}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		if opts.MaxDepth > 0 && depth[v] >= opts.MaxDepth {
			continue
		}

		for _, edge := range sortedEdges(adj[v]) {
			if opts.EdgeFilter != nil && !opts.EdgeFilter(edge) {
				continue
			}
			w := step(edge, v, opts.Direction)
			if w == "" {
				continue
			}
			if _, seen := visited[w]; seen {
				continue
			}
			node := s.GetNode(w)
			if node == nil {
				continue
			}
			if opts.NodeFilter != nil && !opts.NodeFilter(node) {
				continue
			}
			visited[w] = struct{}{}
			depth[w] = depth[v] + 1
			order = append(order, w)
			queue = append(queue, w)
		}
	}
	return order
}

// DFS traverses depth-first from startID and returns the visited node
// ids in visit order.
func DFS(s *graph.Store, startID string, opts Options) []string {
	start := s.GetNode(startID)
	if start == nil {
		return nil
	}
	if opts.NodeFilter != nil && !opts.NodeFilter(start) {
		return nil
	}

	adj := buildAdjacency(s)
	visited := make(map[string]struct{})
	var order []string

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		visited[id] = struct{}{}
		order = append(order, id)

		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return
		}
		for _, edge := range sortedEdges(adj[id]) {
			if opts.EdgeFilter != nil && !opts.EdgeFilter(edge) {
				continue
			}
			w := step(edge, id, opts.Direction)
			if w == "" {
				continue
			}
			if _, seen := visited[w]; seen {
				continue
			}
			node := s.GetNode(w)
			if node == nil {
				continue
			}
			if opts.NodeFilter != nil && !opts.NodeFilter(node) {
				continue
			}
			walk(w, depth+1)
		}
	}
	walk(startID, 0)
	return order
}
