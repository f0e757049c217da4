package analytics

import (
	"sort"

	"loreweave/pkg/graph"
)

// DetectCommunities labels connected components via BFS and returns one
// member list per component, largest first. This is component labeling,
// not modularity-optimizing community detection: it only separates
// disjoint subgraphs. Members within a community and the community order
// are deterministic.
func DetectCommunities(s *graph.Store) [][]string {
	adjacency := s.AdjacencyList()

	ids := make([]string, 0, len(adjacency))
	for id := range adjacency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]struct{}, len(ids))
	var communities [][]string

	for _, start := range ids {
		if _, ok := visited[start]; ok {
			continue
		}

		var members []string
		visited[start] = struct{}{}
		queue := []string{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			members = append(members, v)
			for _, w := range adjacency[v] {
				if _, ok := visited[w]; ok {
					continue
				}
				visited[w] = struct{}{}
				queue = append(queue, w)
			}
		}

		sort.Strings(members)
		communities = append(communities, members)
	}

	sort.SliceStable(communities, func(i, j int) bool {
		if len(communities[i]) != len(communities[j]) {
			return len(communities[i]) > len(communities[j])
		}
		return communities[i][0] < communities[j][0]
	})
	return communities
}
