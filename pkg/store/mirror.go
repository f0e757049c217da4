package store

import (
	"context"
	"fmt"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
	"loreweave/pkg/logger"
)

// Mirror is a write-behind bridge from the in-memory store to a
// GraphStorage backend. It subscribes to store mutations, accumulates
// dirty ids, and pushes snapshots on Flush. It is meant for the single
// goroutine that owns the store; it does no locking of its own.
type Mirror struct {
	store   *graph.Store
	backend GraphStorage
	graphID string

	dirtyNodes   map[string]struct{}
	dirtyEdges   map[string]struct{}
	removedNodes map[string]struct{}
	removedEdges map[string]struct{}
}

// NewMirror attaches a mirror to the store. Mutations applied after
// this call are tracked; call SyncAll first to push pre-existing state.
func NewMirror(s *graph.Store, backend GraphStorage, graphID string) *Mirror {
	m := &Mirror{
		store:        s,
		backend:      backend,
		graphID:      graphID,
		dirtyNodes:   make(map[string]struct{}),
		dirtyEdges:   make(map[string]struct{}),
		removedNodes: make(map[string]struct{}),
		removedEdges: make(map[string]struct{}),
	}
	s.OnMutate(m.track)
	return m
}

func (m *Mirror) track(muts []graph.Mutation) {
	for _, mut := range muts {
		switch mut.Kind {
		case graph.MutationNodeAdded, graph.MutationNodeUpdated:
			m.dirtyNodes[mut.NodeID] = struct{}{}
			delete(m.removedNodes, mut.NodeID)
		case graph.MutationNodeRemoved:
			m.removedNodes[mut.NodeID] = struct{}{}
			delete(m.dirtyNodes, mut.NodeID)
		case graph.MutationEdgeAdded, graph.MutationEdgeUpdated:
			m.dirtyEdges[mut.EdgeID] = struct{}{}
			delete(m.removedEdges, mut.EdgeID)
		case graph.MutationEdgeRemoved:
			m.removedEdges[mut.EdgeID] = struct{}{}
			delete(m.dirtyEdges, mut.EdgeID)
		}
	}
}

// Pending reports how many dirty or removed records await a flush.
func (m *Mirror) Pending() int {
	return len(m.dirtyNodes) + len(m.dirtyEdges) + len(m.removedNodes) + len(m.removedEdges)
}

// Flush pushes the accumulated changes to the backend. Deletes go last
// so an edge whose endpoint was merged away never outlives its nodes in
// the mirror. On error the dirty sets are kept for the next attempt.
func (m *Mirror) Flush(ctx context.Context) error {
	if m.Pending() == 0 {
		return nil
	}

	nodeSnaps := snapshotNodes(m.store, m.dirtyNodes)
	edgeSnaps := snapshotEdges(m.store, m.dirtyEdges)

	if len(nodeSnaps) > 0 {
		if err := m.backend.UpsertNodes(ctx, m.graphID, nodeSnaps); err != nil {
			return fmt.Errorf("failed to mirror nodes: %w", err)
		}
	}
	if len(edgeSnaps) > 0 {
		if err := m.backend.UpsertEdges(ctx, m.graphID, edgeSnaps); err != nil {
			return fmt.Errorf("failed to mirror edges: %w", err)
		}
	}
	if len(m.removedEdges) > 0 {
		if err := m.backend.DeleteEdges(ctx, m.graphID, keys(m.removedEdges)); err != nil {
			return fmt.Errorf("failed to mirror edge deletes: %w", err)
		}
	}
	if len(m.removedNodes) > 0 {
		if err := m.backend.DeleteNodes(ctx, m.graphID, keys(m.removedNodes)); err != nil {
			return fmt.Errorf("failed to mirror node deletes: %w", err)
		}
	}

	logger.Debug("[Mirror] Flushed graph changes",
		"graphId", m.graphID,
		"nodes", len(nodeSnaps),
		"edges", len(edgeSnaps),
		"removed", len(m.removedNodes)+len(m.removedEdges),
	)

	m.dirtyNodes = make(map[string]struct{})
	m.dirtyEdges = make(map[string]struct{})
	m.removedNodes = make(map[string]struct{})
	m.removedEdges = make(map[string]struct{})
	return nil
}

// SyncAll pushes every node and edge currently in the store, then
// clears the dirty sets. Used on startup and after bulk rebuilds.
func (m *Mirror) SyncAll(ctx context.Context) error {
	if err := m.backend.UpsertNodes(ctx, m.graphID, m.store.Nodes()); err != nil {
		return fmt.Errorf("failed to sync nodes: %w", err)
	}
	if err := m.backend.UpsertEdges(ctx, m.graphID, m.store.Edges()); err != nil {
		return fmt.Errorf("failed to sync edges: %w", err)
	}
	m.dirtyNodes = make(map[string]struct{})
	m.dirtyEdges = make(map[string]struct{})
	m.removedNodes = make(map[string]struct{})
	m.removedEdges = make(map[string]struct{})
	return nil
}

func snapshotNodes(s *graph.Store, ids map[string]struct{}) []*common.Node {
	out := make([]*common.Node, 0, len(ids))
	for id := range ids {
		if node := s.GetNode(id); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func snapshotEdges(s *graph.Store, ids map[string]struct{}) []*common.Edge {
	out := make([]*common.Edge, 0, len(ids))
	for id := range ids {
		if edge := s.GetEdge(id); edge != nil {
			out = append(out, edge)
		}
	}
	return out
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
