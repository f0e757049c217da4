package graph

import (
	"fmt"
	"time"

	"loreweave/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MutationKind identifies what a single store mutation did.
type MutationKind string

const (
	MutationNodeAdded   MutationKind = "node_added"
	MutationNodeUpdated MutationKind = "node_updated"
	MutationNodeRemoved MutationKind = "node_removed"
	MutationEdgeAdded   MutationKind = "edge_added"
	MutationEdgeUpdated MutationKind = "edge_updated"
	MutationEdgeRemoved MutationKind = "edge_removed"
)

// Mutation describes one applied change, delivered to listeners.
type Mutation struct {
	Kind   MutationKind
	NodeID string
	EdgeID string
}

// Store owns the canonical node and edge collections of the unified
// graph. It assigns identifiers, applies mutations, and keeps the index
// manager consistent on every change.
//
// The store is single-writer: it performs no internal locking, and
// callers running extraction pipelines concurrently must serialize their
// mutation calls (see the worker for the serialization pattern).
type Store struct {
	nodes map[string]*common.Node
	edges map[string]*common.Edge

	// incident edge ids per node, both directions
	adjacency map[string]map[string]struct{}

	index      *Index
	generation uint64

	listeners  []func([]Mutation)
	batchDepth int
	pending    []Mutation
}

// New creates an empty graph store. Callers hold the handle explicitly;
// there is no process-wide instance.
func New() *Store {
	return &Store{
		nodes:     make(map[string]*common.Node),
		edges:     make(map[string]*common.Edge),
		adjacency: make(map[string]map[string]struct{}),
		index:     NewIndex(),
	}
}

// Index exposes the index manager for read-side lookups.
func (s *Store) Index() *Index {
	return s.index
}

// Generation returns the store's mutation sequence number. Derived
// builders use it to invalidate caches instead of relying on instance
// identity.
func (s *Store) Generation() uint64 {
	return s.generation
}

// OnMutate registers a listener receiving applied mutations. Inside a
// Batch the notifications are deferred and delivered once as a group;
// index consistency is always maintained synchronously regardless.
func (s *Store) OnMutate(fn func([]Mutation)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(m Mutation) {
	s.generation++
	if s.batchDepth > 0 {
		s.pending = append(s.pending, m)
		return
	}
	for _, fn := range s.listeners {
		fn([]Mutation{m})
	}
}

// Batch runs fn as a mutation group. Listener notification is deferred
// until the whole group completes; if fn fails mid-way the mutations
// applied so far remain applied (at-least-applied-so-far, not atomic)
// and their notifications are still delivered.
func (s *Store) Batch(fn func() error) error {
	s.batchDepth++
	err := fn()
	s.batchDepth--

	if s.batchDepth == 0 && len(s.pending) > 0 {
		pending := s.pending
		s.pending = nil
		for _, l := range s.listeners {
			l(pending)
		}
	}
	return err
}

// Restore loads previously exported node and edge snapshots into an
// empty store, keeping their ids and timestamps. Edges referencing
// missing endpoints are skipped with an error returned after loading
// everything else. Listeners are not notified; Restore rebuilds state,
// it does not mutate it.
func (s *Store) Restore(nodes []*common.Node, edges []*common.Edge) error {
	if len(s.nodes) > 0 || len(s.edges) > 0 {
		return fmt.Errorf("restore requires an empty store")
	}

	restored := make([]*common.Node, 0, len(nodes))
	for _, node := range nodes {
		clone := node.Clone()
		s.nodes[clone.ID] = clone
		s.adjacency[clone.ID] = make(map[string]struct{})
		restored = append(restored, clone)
	}
	s.index.RebuildFromNodes(restored)

	var skipped int
	for _, edge := range edges {
		if _, ok := s.nodes[edge.Source]; !ok {
			skipped++
			continue
		}
		if _, ok := s.nodes[edge.Target]; !ok {
			skipped++
			continue
		}
		clone := edge.Clone()
		s.edges[clone.ID] = clone
		s.adjacency[clone.Source][clone.ID] = struct{}{}
		s.adjacency[clone.Target][clone.ID] = struct{}{}
	}
	s.generation++

	if skipped > 0 {
		return fmt.Errorf("skipped %d edges with missing endpoints", skipped)
	}
	return nil
}

// NodeAttrs are the caller-supplied attributes for a new node. The id and
// timestamps are assigned by the store.
type NodeAttrs struct {
	Type          common.NodeType
	Label         string
	EntityKind    string
	EntitySubtype string
	ParentID      string
	SourceNoteID  string
	BlueprintID   string
	Extraction    *common.Extraction
	IsPinned      bool
	Favorite      bool
	IsEntity      bool
	IsTypedRoot   bool
	Properties    map[string]any
}

// classTags derives the presentation class set from node attributes.
func classTags(n *common.Node) []string {
	classes := []string{"node-" + string(n.Type)}
	if n.EntityKind != "" {
		classes = append(classes, "kind-"+NormalizeLabel(n.EntityKind))
	}
	if n.IsPinned {
		classes = append(classes, "pinned")
	}
	if n.Favorite {
		classes = append(classes, "favorite")
	}
	if n.IsTypedRoot {
		classes = append(classes, "typed-root")
	}
	return classes
}

func (s *Store) checkParent(parentID string) error {
	if parentID == "" {
		return nil
	}
	parent, ok := s.nodes[parentID]
	if !ok {
		return fmt.Errorf("parent %s not found", parentID)
	}
	if parent.Type != common.NodeTypeFolder {
		return fmt.Errorf("parent %s is not a folder", parentID)
	}
	return nil
}

// AddNode creates a node with a fresh id and timestamps, derives its
// presentation classes, inserts it into the store and the index, and
// returns a snapshot of the created node.
func (s *Store) AddNode(attrs NodeAttrs) (*common.Node, error) {
	if !attrs.Type.Valid() {
		return nil, fmt.Errorf("invalid node type: %s", attrs.Type)
	}
	if err := s.checkParent(attrs.ParentID); err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate node ID: %w", err)
	}

	now := time.Now().UnixMilli()
	node := &common.Node{
		ID:            "node-" + id,
		Type:          attrs.Type,
		Label:         attrs.Label,
		EntityKind:    attrs.EntityKind,
		EntitySubtype: attrs.EntitySubtype,
		ParentID:      attrs.ParentID,
		SourceNoteID:  attrs.SourceNoteID,
		BlueprintID:   attrs.BlueprintID,
		Extraction:    attrs.Extraction.Clone(),
		IsPinned:      attrs.IsPinned,
		Favorite:      attrs.Favorite,
		IsEntity:      attrs.IsEntity,
		IsTypedRoot:   attrs.IsTypedRoot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if attrs.Properties != nil {
		node.Properties = make(map[string]any, len(attrs.Properties))
		for k, v := range attrs.Properties {
			node.Properties[k] = v
		}
	}
	node.Classes = classTags(node)

	s.nodes[node.ID] = node
	s.adjacency[node.ID] = make(map[string]struct{})
	s.index.IndexNode(node)
	s.notify(Mutation{Kind: MutationNodeAdded, NodeID: node.ID})

	return node.Clone(), nil
}

// AddNodes creates a batch of nodes under a single mutation group. The
// returned order matches the input order. If one creation fails the
// nodes created before it stay applied and the error is returned.
func (s *Store) AddNodes(batch []NodeAttrs) ([]*common.Node, error) {
	created := make([]*common.Node, 0, len(batch))
	err := s.Batch(func() error {
		for i := range batch {
			node, err := s.AddNode(batch[i])
			if err != nil {
				return err
			}
			created = append(created, node)
		}
		return nil
	})
	if err != nil {
		return created, err
	}
	return created, nil
}

// NodeUpdate carries a partial node update. Nil fields are left
// unchanged; Properties are merged key by key.
type NodeUpdate struct {
	Type          *common.NodeType
	Label         *string
	EntityKind    *string
	EntitySubtype *string
	ParentID      *string
	SourceNoteID  *string
	BlueprintID   *string
	Extraction    *common.Extraction
	IsPinned      *bool
	Favorite      *bool
	IsEntity      *bool
	IsTypedRoot   *bool
	Properties    map[string]any
}

// UpdateNode merges a partial update into a node, bumps its UpdatedAt and
// reconciles the index by diffing old vs. new indexed fields. Returns
// nil, false when the node does not exist.
func (s *Store) UpdateNode(id string, update NodeUpdate) (*common.Node, bool, error) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, false, nil
	}

	if update.Type != nil && !update.Type.Valid() {
		return nil, true, fmt.Errorf("invalid node type: %s", *update.Type)
	}
	if update.ParentID != nil {
		if err := s.checkParent(*update.ParentID); err != nil {
			return nil, true, err
		}
	}

	old := *node

	if update.Type != nil {
		node.Type = *update.Type
	}
	if update.Label != nil {
		node.Label = *update.Label
	}
	if update.EntityKind != nil {
		node.EntityKind = *update.EntityKind
	}
	if update.EntitySubtype != nil {
		node.EntitySubtype = *update.EntitySubtype
	}
	if update.ParentID != nil {
		node.ParentID = *update.ParentID
	}
	if update.SourceNoteID != nil {
		node.SourceNoteID = *update.SourceNoteID
	}
	if update.BlueprintID != nil {
		node.BlueprintID = *update.BlueprintID
	}
	if update.Extraction != nil {
		node.Extraction = update.Extraction.Clone()
	}
	if update.IsPinned != nil {
		node.IsPinned = *update.IsPinned
	}
	if update.Favorite != nil {
		node.Favorite = *update.Favorite
	}
	if update.IsEntity != nil {
		node.IsEntity = *update.IsEntity
	}
	if update.IsTypedRoot != nil {
		node.IsTypedRoot = *update.IsTypedRoot
	}
	if update.Properties != nil {
		if node.Properties == nil {
			node.Properties = make(map[string]any, len(update.Properties))
		}
		for k, v := range update.Properties {
			node.Properties[k] = v
		}
	}

	node.Classes = classTags(node)
	node.UpdatedAt = time.Now().UnixMilli()

	s.index.UpdateNodeIndex(&old, node)
	s.notify(Mutation{Kind: MutationNodeUpdated, NodeID: node.ID})

	return node.Clone(), true, nil
}

// RemoveNode deletes a node, all its incident edges and its index
// entries. Removing an absent node is a no-op and returns false.
func (s *Store) RemoveNode(id string) bool {
	node, ok := s.nodes[id]
	if !ok {
		return false
	}

	for edgeID := range s.adjacency[id] {
		s.removeEdgeInternal(edgeID)
	}

	s.index.UnindexNode(node)
	delete(s.adjacency, id)
	delete(s.nodes, id)
	s.notify(Mutation{Kind: MutationNodeRemoved, NodeID: id})

	return true
}

// GetNode returns a snapshot of the node, or nil when absent. Mutating
// the returned value does not affect the store.
func (s *Store) GetNode(id string) *common.Node {
	return s.nodes[id].Clone()
}

// HasNode reports whether a node exists.
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns snapshots of every node.
func (s *Store) Nodes() []*common.Node {
	out := make([]*common.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	return out
}

// NodeIDs returns the ids of every node.
func (s *Store) NodeIDs() []string {
	out := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		out = append(out, id)
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeAttrs are the caller-supplied attributes for a new edge. ID is
// optional: derived builders pass a deterministic identity key, other
// callers leave it empty and get a fresh id.
type EdgeAttrs struct {
	ID                string
	Source            string
	Target            string
	Type              string
	Weight            float64
	Confidence        float64
	NoteIDs           []string
	ExtractionMethods []common.ExtractionMethod
	Bidirectional     bool
	Properties        map[string]any
}

// AddEdge inserts an edge between two existing nodes and returns a
// snapshot of it.
func (s *Store) AddEdge(attrs EdgeAttrs) (*common.Edge, error) {
	if _, ok := s.nodes[attrs.Source]; !ok {
		return nil, fmt.Errorf("source node %s not found", attrs.Source)
	}
	if _, ok := s.nodes[attrs.Target]; !ok {
		return nil, fmt.Errorf("target node %s not found", attrs.Target)
	}
	if attrs.Type == "" {
		return nil, fmt.Errorf("edge type is required")
	}

	id := attrs.ID
	if id == "" {
		nid, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate edge ID: %w", err)
		}
		id = "edge-" + nid
	}
	if _, exists := s.edges[id]; exists {
		return nil, fmt.Errorf("edge %s already exists", id)
	}

	now := time.Now().UnixMilli()
	edge := &common.Edge{
		ID:            id,
		Source:        attrs.Source,
		Target:        attrs.Target,
		Type:          attrs.Type,
		Weight:        attrs.Weight,
		Confidence:    attrs.Confidence,
		Bidirectional: attrs.Bidirectional,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, noteID := range attrs.NoteIDs {
		edge.AddNoteID(noteID)
	}
	for _, m := range attrs.ExtractionMethods {
		edge.AddExtractionMethod(m)
	}
	if attrs.Properties != nil {
		edge.Properties = make(map[string]any, len(attrs.Properties))
		for k, v := range attrs.Properties {
			edge.Properties[k] = v
		}
	}

	s.edges[id] = edge
	s.adjacency[edge.Source][id] = struct{}{}
	s.adjacency[edge.Target][id] = struct{}{}
	s.notify(Mutation{Kind: MutationEdgeAdded, EdgeID: id})

	return edge.Clone(), nil
}

// EdgeUpdate carries a partial edge update. Nil fields are left
// unchanged; NoteIDs and ExtractionMethods are unioned, Properties are
// merged key by key.
type EdgeUpdate struct {
	Type              *string
	Weight            *float64
	Confidence        *float64
	NoteIDs           []string
	ExtractionMethods []common.ExtractionMethod
	Bidirectional     *bool
	Properties        map[string]any
}

// UpdateEdge merges a partial update into an edge. Returns nil, false
// when the edge does not exist.
func (s *Store) UpdateEdge(id string, update EdgeUpdate) (*common.Edge, bool) {
	edge, ok := s.edges[id]
	if !ok {
		return nil, false
	}

	if update.Type != nil {
		edge.Type = *update.Type
	}
	if update.Weight != nil {
		edge.Weight = *update.Weight
	}
	if update.Confidence != nil {
		edge.Confidence = *update.Confidence
	}
	for _, noteID := range update.NoteIDs {
		edge.AddNoteID(noteID)
	}
	for _, m := range update.ExtractionMethods {
		edge.AddExtractionMethod(m)
	}
	if update.Bidirectional != nil {
		edge.Bidirectional = *update.Bidirectional
	}
	if update.Properties != nil {
		if edge.Properties == nil {
			edge.Properties = make(map[string]any, len(update.Properties))
		}
		for k, v := range update.Properties {
			edge.Properties[k] = v
		}
	}
	edge.UpdatedAt = time.Now().UnixMilli()

	s.notify(Mutation{Kind: MutationEdgeUpdated, EdgeID: id})
	return edge.Clone(), true
}

func (s *Store) removeEdgeInternal(id string) {
	edge, ok := s.edges[id]
	if !ok {
		return
	}
	if set, ok := s.adjacency[edge.Source]; ok {
		delete(set, id)
	}
	if set, ok := s.adjacency[edge.Target]; ok {
		delete(set, id)
	}
	delete(s.edges, id)
	s.notify(Mutation{Kind: MutationEdgeRemoved, EdgeID: id})
}

// RemoveEdge deletes an edge. Removing an absent edge is a no-op and
// returns false.
func (s *Store) RemoveEdge(id string) bool {
	if _, ok := s.edges[id]; !ok {
		return false
	}
	s.removeEdgeInternal(id)
	return true
}

// GetEdge returns a snapshot of the edge, or nil when absent.
func (s *Store) GetEdge(id string) *common.Edge {
	return s.edges[id].Clone()
}

// Edges returns snapshots of every edge.
func (s *Store) Edges() []*common.Edge {
	out := make([]*common.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e.Clone())
	}
	return out
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// EdgesOf returns snapshots of every edge incident to a node.
func (s *Store) EdgesOf(id string) []*common.Edge {
	set, ok := s.adjacency[id]
	if !ok {
		return nil
	}
	out := make([]*common.Edge, 0, len(set))
	for edgeID := range set {
		out = append(out, s.edges[edgeID].Clone())
	}
	return out
}

// GetEdgesBetween returns all edges connecting the two nodes, regardless
// of direction.
func (s *Store) GetEdgesBetween(a, b string) []*common.Edge {
	set, ok := s.adjacency[a]
	if !ok {
		return nil
	}
	var out []*common.Edge
	for edgeID := range set {
		edge := s.edges[edgeID]
		if (edge.Source == a && edge.Target == b) || (edge.Source == b && edge.Target == a) {
			out = append(out, edge.Clone())
		}
	}
	return out
}

// Neighbors returns the distinct ids of all nodes sharing an edge with
// the given node, in either direction.
func (s *Store) Neighbors(id string) []string {
	set, ok := s.adjacency[id]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(set))
	for edgeID := range set {
		edge := s.edges[edgeID]
		other := edge.Target
		if other == id {
			other = edge.Source
		}
		if other == id {
			continue
		}
		seen[other] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// AdjacencyList builds an undirected neighbor map over the whole graph.
// Analytics algorithms use this snapshot instead of cloning every node.
func (s *Store) AdjacencyList() map[string][]string {
	out := make(map[string][]string, len(s.nodes))
	for id := range s.nodes {
		out[id] = s.Neighbors(id)
	}
	return out
}

// Degree returns the number of distinct neighbors of a node.
func (s *Store) Degree(id string) int {
	return len(s.Neighbors(id))
}
