package analytics

import (
	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

// Statistics aggregates whole-graph measures.
type Statistics struct {
	NodeCount      int                     `json:"nodeCount"`
	EdgeCount      int                     `json:"edgeCount"`
	Density        float64                 `json:"density"`
	AverageDegree  float64                 `json:"averageDegree"`
	NodesByType    map[common.NodeType]int `json:"nodesByType"`
	EntitiesByKind map[string]int          `json:"entitiesByKind"`
}

// ComputeStatistics returns counts, density 2E/(N(N-1)) and average
// degree 2E/N over the current graph snapshot. Density is 0 for graphs
// with fewer than two nodes.
func ComputeStatistics(s *graph.Store) Statistics {
	stats := Statistics{
		NodeCount:      s.NodeCount(),
		EdgeCount:      s.EdgeCount(),
		NodesByType:    make(map[common.NodeType]int),
		EntitiesByKind: make(map[string]int),
	}

	n := float64(stats.NodeCount)
	e := float64(stats.EdgeCount)
	if stats.NodeCount > 1 {
		stats.Density = (2 * e) / (n * (n - 1))
	}
	if stats.NodeCount > 0 {
		stats.AverageDegree = (2 * e) / n
	}

	for _, node := range s.Nodes() {
		stats.NodesByType[node.Type]++
		if node.Type == common.NodeTypeEntity && node.EntityKind != "" {
			stats.EntitiesByKind[node.EntityKind]++
		}
	}
	return stats
}
