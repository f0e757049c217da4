package pgx

import (
	"context"
	"fmt"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	SendBatch(ctx context.Context, b *pgxv5.Batch) pgxv5.BatchResults
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

const upsertChunkSize = 500

// GraphDBStorage mirrors graph snapshots into PostgreSQL. Writes are
// idempotent upserts keyed by (graph_id, public_id), so replaying a
// flush after a crash is safe. A mutex serializes access because pgx
// connections are not safe for concurrent use.
type GraphDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage on top of an
// existing connection. The caller keeps ownership of the connection.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

// CreateSchema creates the mirror tables if they do not exist yet.
func (s *GraphDBStorage) CreateSchema(ctx context.Context) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS graph_nodes (
			graph_id TEXT NOT NULL,
			public_id TEXT NOT NULL,
			node_type TEXT NOT NULL,
			label TEXT NOT NULL,
			entity_kind TEXT NOT NULL DEFAULT '',
			parent_id TEXT NOT NULL DEFAULT '',
			source_note_id TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (graph_id, public_id)
		)`,
		`CREATE TABLE IF NOT EXISTS graph_edges (
			graph_id TEXT NOT NULL,
			public_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			edge_type TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL DEFAULT 1,
			payload JSONB NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (graph_id, public_id)
		)`,
		`CREATE TABLE IF NOT EXISTS graph_communities (
			graph_id TEXT NOT NULL,
			community_id INT NOT NULL,
			members JSONB NOT NULL,
			PRIMARY KEY (graph_id, community_id)
		)`,
		`CREATE TABLE IF NOT EXISTS graph_statistics (
			graph_id TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			computed_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_nodes_label ON graph_nodes (graph_id, lower(label))`,
		`CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges (graph_id, source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges (graph_id, target_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
