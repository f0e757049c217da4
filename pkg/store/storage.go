package store

import (
	"context"

	"loreweave/pkg/common"
)

// GraphStorage defines the interface for persisting graph snapshots.
// The in-memory store stays authoritative; implementations only mirror
// state for durability and cross-process reads, so every write must be
// idempotent.
type GraphStorage interface {
	CreateSchema(ctx context.Context) error

	UpsertNodes(ctx context.Context, graphID string, nodes []*common.Node) error
	UpsertEdges(ctx context.Context, graphID string, edges []*common.Edge) error
	DeleteNodes(ctx context.Context, graphID string, ids []string) error
	DeleteEdges(ctx context.Context, graphID string, ids []string) error

	SaveCommunities(ctx context.Context, graphID string, communities []Community) error
	SaveStatistics(ctx context.Context, graphID string, stats Statistics) error

	LoadGraph(ctx context.Context, graphID string) ([]*common.Node, []*common.Edge, error)
}

// Community is the persisted form of a detected community.
type Community struct {
	ID      int      `json:"id"`
	Members []string `json:"members"`
}

// Statistics is the persisted form of a graph-level statistics snapshot.
type Statistics struct {
	NodeCount      int            `json:"nodeCount"`
	EdgeCount      int            `json:"edgeCount"`
	Density        float64        `json:"density"`
	AverageDegree  float64        `json:"averageDegree"`
	NodesByType    map[string]int `json:"nodesByType"`
	EntitiesByKind map[string]int `json:"entitiesByKind"`
}

// ChunkRange invokes fn over [start, end) windows of at most chunkSize
// elements, stopping at the first error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
