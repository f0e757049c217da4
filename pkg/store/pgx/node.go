package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"loreweave/pkg/common"
	"loreweave/pkg/store"
)

// UpsertNodes writes node snapshots in chunked batches. The full node
// is JSON-encoded into the payload column; the scalar columns exist for
// SQL-side filtering only.
func (s *GraphDBStorage) UpsertNodes(ctx context.Context, graphID string, nodes []*common.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return store.ChunkRange(len(nodes), upsertChunkSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, node := range nodes[start:end] {
			payload, err := json.Marshal(node)
			if err != nil {
				return fmt.Errorf("failed to marshal node %s: %w", node.ID, err)
			}
			batch.Queue(
				`INSERT INTO graph_nodes
					(graph_id, public_id, node_type, label, entity_kind, parent_id, source_note_id, payload, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (graph_id, public_id) DO UPDATE SET
					node_type = EXCLUDED.node_type,
					label = EXCLUDED.label,
					entity_kind = EXCLUDED.entity_kind,
					parent_id = EXCLUDED.parent_id,
					source_note_id = EXCLUDED.source_note_id,
					payload = EXCLUDED.payload,
					updated_at = EXCLUDED.updated_at`,
				graphID, node.ID, string(node.Type), node.Label,
				node.EntityKind, node.ParentID, node.SourceNoteID,
				payload, node.UpdatedAt,
			)
		}
		if err := s.conn.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert node batch: %w", err)
		}
		return nil
	})
}

// DeleteNodes removes mirrored nodes. Ids that are already gone are
// ignored.
func (s *GraphDBStorage) DeleteNodes(ctx context.Context, graphID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	if _, err := s.conn.Exec(ctx,
		`DELETE FROM graph_nodes WHERE graph_id = $1 AND public_id = ANY($2)`,
		graphID, ids,
	); err != nil {
		return fmt.Errorf("failed to delete nodes: %w", err)
	}
	return nil
}

// SaveStatistics replaces the statistics snapshot for a graph.
func (s *GraphDBStorage) SaveStatistics(ctx context.Context, graphID string, stats store.Statistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	if _, err := s.conn.Exec(ctx,
		`INSERT INTO graph_statistics (graph_id, payload, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (graph_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			computed_at = EXCLUDED.computed_at`,
		graphID, payload, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

// SaveCommunities replaces the stored community partition for a graph.
func (s *GraphDBStorage) SaveCommunities(ctx context.Context, graphID string, communities []store.Community) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	trx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer trx.Rollback(ctx)

	if _, err := trx.Exec(ctx,
		`DELETE FROM graph_communities WHERE graph_id = $1`, graphID,
	); err != nil {
		return fmt.Errorf("failed to clear communities: %w", err)
	}

	for _, community := range communities {
		members, err := json.Marshal(community.Members)
		if err != nil {
			return fmt.Errorf("failed to marshal community members: %w", err)
		}
		if _, err := trx.Exec(ctx,
			`INSERT INTO graph_communities (graph_id, community_id, members) VALUES ($1, $2, $3)`,
			graphID, community.ID, members,
		); err != nil {
			return fmt.Errorf("failed to insert community: %w", err)
		}
	}

	if err := trx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit communities: %w", err)
	}
	return nil
}
