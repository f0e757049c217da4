package query

import (
	"sort"
	"strings"

	"loreweave/pkg/graph"
)

// FindCycles detects cycles of up to maxLength hops by depth-first
// search from every node. Each found cycle is canonicalized by its
// sorted node-id string so rotations and reflections of the same cycle
// are reported once. Cost grows quickly with maxLength; callers bound it.
func FindCycles(s *graph.Store, maxLength int) [][]string {
	if maxLength < 3 {
		maxLength = 3
	}

	adj := buildAdjacency(s)
	seen := make(map[string]struct{})
	var cycles [][]string

	starts := s.NodeIDs()
	sort.Strings(starts)

	var walk func(start, current string, path []string, onPath map[string]struct{})
	walk = func(start, current string, path []string, onPath map[string]struct{}) {
		for _, edge := range sortedEdges(adj[current]) {
			w := step(edge, current, DirectionBoth)
			if w == "" {
				continue
			}
			if w == start && len(path) >= 3 {
				canonical := canonicalCycle(path)
				if _, dup := seen[canonical]; !dup {
					seen[canonical] = struct{}{}
					cycle := make([]string, len(path))
					copy(cycle, path)
					cycles = append(cycles, cycle)
				}
				continue
			}
			if len(path) >= maxLength {
				continue
			}
			if _, visited := onPath[w]; visited {
				continue
			}
			onPath[w] = struct{}{}
			walk(start, w, append(path, w), onPath)
			delete(onPath, w)
		}
	}

	for _, start := range starts {
		walk(start, start, []string{start}, map[string]struct{}{start: {}})
	}
	return cycles
}

func canonicalCycle(path []string) string {
	ids := make([]string, len(path))
	copy(ids, path)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
