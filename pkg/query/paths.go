package query

import (
	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

// Path is a reconstructed shortest path between two nodes.
type Path struct {
	Nodes  []string `json:"nodes"`
	Hops   int      `json:"hops"`
	Weight float64  `json:"weight"`
}

func edgeCost(edge *common.Edge) float64 {
	if edge.Weight > 0 {
		return edge.Weight
	}
	return 1
}

// ShortestPath finds an unweighted (hop-count) shortest path between two
// nodes via BFS, breaking ties between equal-hop paths by preferring the
// lower accumulated edge weight. Returns nil when either node is missing
// or no path exists.
func ShortestPath(s *graph.Store, fromID, toID string) *Path {
	if !s.HasNode(fromID) || !s.HasNode(toID) {
		return nil
	}
	if fromID == toID {
		return &Path{Nodes: []string{fromID}}
	}

	adj := buildAdjacency(s)

	dist := map[string]int{fromID: 0}
	weight := map[string]float64{fromID: 0}
	pred := make(map[string]string)

	frontier := []string{fromID}
	for len(frontier) > 0 {
		// Relax the whole layer before moving on so that same-depth
		// weight improvements are settled before their successors are
		// expanded.
		next := make(map[string]struct{})
		for _, v := range frontier {
			for _, edge := range sortedEdges(adj[v]) {
				w := step(edge, v, DirectionBoth)
				if w == "" {
					continue
				}
				candidate := weight[v] + edgeCost(edge)
				d, seen := dist[w]
				switch {
				case !seen:
					dist[w] = dist[v] + 1
					weight[w] = candidate
					pred[w] = v
					next[w] = struct{}{}
				case d == dist[v]+1 && candidate < weight[w]:
					weight[w] = candidate
					pred[w] = v
				}
			}
		}

		if _, reached := dist[toID]; reached {
			break
		}
		frontier = frontier[:0]
		for w := range next {
			frontier = append(frontier, w)
		}
	}

	if _, reached := dist[toID]; !reached {
		return nil
	}

	var nodes []string
	for at := toID; ; at = pred[at] {
		nodes = append([]string{at}, nodes...)
		if at == fromID {
			break
		}
	}
	return &Path{Nodes: nodes, Hops: dist[toID], Weight: weight[toID]}
}

// Eccentricity returns the greatest shortest-path distance from the node
// to any reachable node, or -1 when the node does not exist.
func Eccentricity(s *graph.Store, id string) int {
	if !s.HasNode(id) {
		return -1
	}

	adj := buildAdjacency(s)
	dist := map[string]int{id: 0}
	queue := []string{id}
	maxDist := 0

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, edge := range adj[v] {
			w := step(edge, v, DirectionBoth)
			if w == "" {
				continue
			}
			if _, seen := dist[w]; seen {
				continue
			}
			dist[w] = dist[v] + 1
			if dist[w] > maxDist {
				maxDist = dist[w]
			}
			queue = append(queue, w)
		}
	}
	return maxDist
}

// Diameter returns the largest eccentricity over all nodes. This runs a
// full BFS per node, so it is only suitable for the small-to-medium
// graphs this engine targets.
func Diameter(s *graph.Store) int {
	max := 0
	for _, id := range s.NodeIDs() {
		if e := Eccentricity(s, id); e > max {
			max = e
		}
	}
	return max
}

// Radius returns the smallest non-zero eccentricity over all nodes, or 0
// for graphs without edges.
func Radius(s *graph.Store) int {
	min := -1
	for _, id := range s.NodeIDs() {
		e := Eccentricity(s, id)
		if e == 0 {
			continue
		}
		if min == -1 || e < min {
			min = e
		}
	}
	if min == -1 {
		return 0
	}
	return min
}
