package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"loreweave/pkg/common"
	"loreweave/pkg/store"
)

// UpsertEdges writes edge snapshots in chunked batches, keyed like
// nodes so derived edges keep their deterministic ids across flushes.
func (s *GraphDBStorage) UpsertEdges(ctx context.Context, graphID string, edges []*common.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return store.ChunkRange(len(edges), upsertChunkSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, edge := range edges[start:end] {
			payload, err := json.Marshal(edge)
			if err != nil {
				return fmt.Errorf("failed to marshal edge %s: %w", edge.ID, err)
			}
			batch.Queue(
				`INSERT INTO graph_edges
					(graph_id, public_id, source_id, target_id, edge_type, weight, payload, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (graph_id, public_id) DO UPDATE SET
					source_id = EXCLUDED.source_id,
					target_id = EXCLUDED.target_id,
					edge_type = EXCLUDED.edge_type,
					weight = EXCLUDED.weight,
					payload = EXCLUDED.payload,
					updated_at = EXCLUDED.updated_at`,
				graphID, edge.ID, edge.Source, edge.Target,
				edge.Type, edge.Weight, payload, edge.UpdatedAt,
			)
		}
		if err := s.conn.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert edge batch: %w", err)
		}
		return nil
	})
}

// DeleteEdges removes mirrored edges.
func (s *GraphDBStorage) DeleteEdges(ctx context.Context, graphID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	if _, err := s.conn.Exec(ctx,
		`DELETE FROM graph_edges WHERE graph_id = $1 AND public_id = ANY($2)`,
		graphID, ids,
	); err != nil {
		return fmt.Errorf("failed to delete edges: %w", err)
	}
	return nil
}

// LoadGraph reads every mirrored node and edge for a graph, for
// rebuilding an in-memory store after a restart.
func (s *GraphDBStorage) LoadGraph(ctx context.Context, graphID string) ([]*common.Node, []*common.Edge, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	nodeRows, err := s.conn.Query(ctx,
		`SELECT payload FROM graph_nodes WHERE graph_id = $1`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []*common.Node
	for nodeRows.Next() {
		var payload []byte
		if err := nodeRows.Scan(&payload); err != nil {
			return nil, nil, fmt.Errorf("failed to scan node: %w", err)
		}
		var node common.Node
		if err := json.Unmarshal(payload, &node); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal node: %w", err)
		}
		nodes = append(nodes, &node)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	edgeRows, err := s.conn.Query(ctx,
		`SELECT payload FROM graph_edges WHERE graph_id = $1`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []*common.Edge
	for edgeRows.Next() {
		var payload []byte
		if err := edgeRows.Scan(&payload); err != nil {
			return nil, nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		var edge common.Edge
		if err := json.Unmarshal(payload, &edge); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal edge: %w", err)
		}
		edges = append(edges, &edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read edges: %w", err)
	}

	return nodes, edges, nil
}
