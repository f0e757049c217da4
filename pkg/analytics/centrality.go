package analytics

import (
	"loreweave/pkg/graph"
	"loreweave/pkg/logger"
)

// betweennessExactLimit is the node count above which exact betweenness
// is abandoned for the degree approximation. Exact computation is
// O(N*E); past this size the approximation keeps analytics interactive.
const betweennessExactLimit = 100

// DegreeCentrality returns degree(n) / max(1, nodeCount-1) per node.
func DegreeCentrality(s *graph.Store) map[string]float64 {
	adjacency := s.AdjacencyList()
	denominator := float64(len(adjacency) - 1)
	if denominator < 1 {
		denominator = 1
	}

	out := make(map[string]float64, len(adjacency))
	for id, neighbors := range adjacency {
		out[id] = float64(len(neighbors)) / denominator
	}
	return out
}

// BetweennessCentrality computes exact betweenness (BFS from every node
// with shortest-path counting and dependency backtracking, normalized by
// (n-1)(n-2)/2) for graphs of up to 100 nodes. Larger graphs fall back
// to the degree approximation degree(n)/(n-1).
func BetweennessCentrality(s *graph.Store) map[string]float64 {
	adjacency := s.AdjacencyList()
	n := len(adjacency)

	if n > betweennessExactLimit {
		logger.Debug("[Analytics] Betweenness falling back to degree approximation", "nodes", n)
		out := make(map[string]float64, n)
		for id, neighbors := range adjacency {
			out[id] = float64(len(neighbors)) / float64(n-1)
		}
		return out
	}

	scores := make(map[string]float64, n)
	for id := range adjacency {
		scores[id] = 0
	}

	for source := range adjacency {
		// BFS from source, counting shortest paths.
		var stack []string
		predecessors := make(map[string][]string, n)
		pathCount := map[string]float64{source: 1}
		distance := map[string]int{source: 0}

		queue := []string{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)

			for _, w := range adjacency[v] {
				d, seen := distance[w]
				if !seen {
					distance[w] = distance[v] + 1
					queue = append(queue, w)
					d = distance[w]
				}
				if d == distance[v]+1 {
					pathCount[w] += pathCount[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		// Backtrack the predecessor chains, accumulating dependency on
		// every intermediate node.
		dependency := make(map[string]float64, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				dependency[v] += (pathCount[v] / pathCount[w]) * (1 + dependency[w])
			}
			if w != source {
				scores[w] += dependency[w]
			}
		}
	}

	if n > 2 {
		// Undirected: each pair was counted from both endpoints.
		norm := float64(n-1) * float64(n-2)
		for id := range scores {
			scores[id] /= norm
		}
	}
	return scores
}

// ClosenessCentrality returns the reachability-weighted closeness
//
//	(reachable/(n-1)) * (reachable/totalDistance)
//
// per node, not the textbook reciprocal-sum formula. Nodes in small
// disconnected fragments score low even when their fragment is tight.
func ClosenessCentrality(s *graph.Store) map[string]float64 {
	adjacency := s.AdjacencyList()
	n := len(adjacency)
	out := make(map[string]float64, n)

	for id := range adjacency {
		reachable := 0
		totalDistance := 0

		distance := map[string]int{id: 0}
		queue := []string{id}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range adjacency[v] {
				if _, seen := distance[w]; seen {
					continue
				}
				distance[w] = distance[v] + 1
				reachable++
				totalDistance += distance[w]
				queue = append(queue, w)
			}
		}

		if n <= 1 || totalDistance == 0 {
			out[id] = 0
			continue
		}
		r := float64(reachable)
		out[id] = (r / float64(n-1)) * (r / float64(totalDistance))
	}
	return out
}
