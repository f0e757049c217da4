package graph

import (
	"fmt"
	"reflect"
	"testing"

	"loreweave/pkg/common"
)

func mustAddNode(t *testing.T, s *Store, attrs NodeAttrs) *common.Node {
	t.Helper()
	node, err := s.AddNode(attrs)
	if err != nil {
		t.Fatalf("AddNode(%+v) failed: %v", attrs, err)
	}
	return node
}

func TestAddNode_AssignsIDAndTimestamps(t *testing.T) {
	s := New()

	node := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeNote, Label: "Chapter 1"})
	if node.ID == "" {
		t.Fatal("expected generated id")
	}
	if node.CreatedAt == 0 || node.UpdatedAt == 0 {
		t.Fatalf("expected timestamps, got created=%d updated=%d", node.CreatedAt, node.UpdatedAt)
	}
	if !s.HasNode(node.ID) {
		t.Fatal("node not retrievable after insert")
	}
}

func TestAddNode_RejectsInvalidType(t *testing.T) {
	s := New()
	if _, err := s.AddNode(NodeAttrs{Type: "WIDGET", Label: "x"}); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestAddNode_ParentMustBeExistingFolder(t *testing.T) {
	s := New()
	note := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeNote, Label: "note"})

	if _, err := s.AddNode(NodeAttrs{Type: common.NodeTypeNote, Label: "a", ParentID: "node-missing"}); err == nil {
		t.Fatal("expected error for missing parent")
	}
	if _, err := s.AddNode(NodeAttrs{Type: common.NodeTypeNote, Label: "b", ParentID: note.ID}); err == nil {
		t.Fatal("expected error for non-folder parent")
	}

	folder := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeFolder, Label: "folder"})
	child := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeNote, Label: "c", ParentID: folder.ID})
	if child.ParentID != folder.ID {
		t.Fatalf("expected parent %s, got %s", folder.ID, child.ParentID)
	}
}

func TestGetNode_ReturnsCopy(t *testing.T) {
	s := New()
	node := mustAddNode(t, s, NodeAttrs{
		Type:       common.NodeTypeNote,
		Label:      "original",
		Properties: map[string]any{"color": "blue"},
	})

	snapshot := s.GetNode(node.ID)
	snapshot.Label = "mutated"
	snapshot.Properties["color"] = "red"

	fresh := s.GetNode(node.ID)
	if fresh.Label != "original" {
		t.Fatalf("store label mutated through snapshot: %s", fresh.Label)
	}
	if fresh.Properties["color"] != "blue" {
		t.Fatalf("store properties mutated through snapshot: %v", fresh.Properties["color"])
	}
}

func TestGetNode_AbsentReturnsNil(t *testing.T) {
	s := New()
	if node := s.GetNode("node-nope"); node != nil {
		t.Fatalf("expected nil for absent node, got %+v", node)
	}
	if s.RemoveNode("node-nope") {
		t.Fatal("removing an absent node must be a no-op returning false")
	}
}

func TestUpdateNode_MergesPropertiesAndReindexes(t *testing.T) {
	s := New()
	node := mustAddNode(t, s, NodeAttrs{
		Type:       common.NodeTypeEntity,
		Label:      "Aragorn",
		EntityKind: "CHARACTER",
		IsEntity:   true,
		Properties: map[string]any{"age": 87},
	})

	newLabel := "Strider"
	updated, ok, err := s.UpdateNode(node.ID, NodeUpdate{
		Label:      &newLabel,
		Properties: map[string]any{"alias": true},
	})
	if err != nil || !ok {
		t.Fatalf("UpdateNode failed: ok=%v err=%v", ok, err)
	}
	if updated.Label != "Strider" {
		t.Fatalf("label not updated: %s", updated.Label)
	}
	if updated.Properties["age"] != 87 || updated.Properties["alias"] != true {
		t.Fatalf("properties not merged: %v", updated.Properties)
	}

	if ids := s.Index().ByLabel("Aragorn"); len(ids) != 0 {
		t.Fatalf("old label still indexed: %v", ids)
	}
	if ids := s.Index().ByLabel("strider"); len(ids) != 1 || ids[0] != node.ID {
		t.Fatalf("new label not indexed: %v", ids)
	}
}

func TestUpdateNode_Absent(t *testing.T) {
	s := New()
	label := "x"
	_, ok, err := s.UpdateNode("node-missing", NodeUpdate{Label: &label})
	if err != nil {
		t.Fatalf("updating absent node must not error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for absent node")
	}
}

func TestRemoveNode_RemovesIncidentEdges(t *testing.T) {
	s := New()
	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a"})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b"})
	c := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "c"})

	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: b.ID, Type: common.EdgeTypeKnows}); err != nil {
		t.Fatal(err)
	}
	keep, err := s.AddEdge(EdgeAttrs{Source: b.ID, Target: c.ID, Type: common.EdgeTypeKnows})
	if err != nil {
		t.Fatal(err)
	}

	if !s.RemoveNode(a.ID) {
		t.Fatal("expected removal to succeed")
	}
	if s.EdgeCount() != 1 {
		t.Fatalf("expected 1 surviving edge, got %d", s.EdgeCount())
	}
	if s.GetEdge(keep.ID) == nil {
		t.Fatal("unrelated edge was removed")
	}
	if got := s.Neighbors(b.ID); !reflect.DeepEqual(got, []string{c.ID}) {
		t.Fatalf("stale adjacency after removal: %v", got)
	}
}

func TestAddNodes_AppliedSoFarOnFailure(t *testing.T) {
	s := New()
	batch := []NodeAttrs{
		{Type: common.NodeTypeNote, Label: "first"},
		{Type: common.NodeTypeNote, Label: "second", ParentID: "node-missing"},
		{Type: common.NodeTypeNote, Label: "third"},
	}

	_, err := s.AddNodes(batch)
	if err == nil {
		t.Fatal("expected error from bad batch entry")
	}
	if s.NodeCount() != 1 {
		t.Fatalf("expected nodes before the failure to stay applied, count=%d", s.NodeCount())
	}
}

func TestAddEdge_Preconditions(t *testing.T) {
	s := New()
	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a"})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b"})

	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: "node-missing", Type: "KNOWS"}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: b.ID, Type: ""}); err == nil {
		t.Fatal("expected error for empty edge type")
	}

	edge, err := s.AddEdge(EdgeAttrs{ID: "edge-dup", Source: a.ID, Target: b.ID, Type: "KNOWS"})
	if err != nil {
		t.Fatal(err)
	}
	if edge.ID != "edge-dup" {
		t.Fatalf("caller-supplied id not honored: %s", edge.ID)
	}
	if _, err := s.AddEdge(EdgeAttrs{ID: "edge-dup", Source: a.ID, Target: b.ID, Type: "OWNS"}); err == nil {
		t.Fatal("expected error for duplicate edge id")
	}
}

func TestGetEdgesBetween_DirectionAgnostic(t *testing.T) {
	s := New()
	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a"})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b"})

	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: b.ID, Type: "KNOWS"}); err != nil {
		t.Fatal(err)
	}

	forward := s.GetEdgesBetween(a.ID, b.ID)
	backward := s.GetEdgesBetween(b.ID, a.ID)
	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("expected one edge in both argument orders, got %d and %d", len(forward), len(backward))
	}
	if forward[0].ID != backward[0].ID {
		t.Fatal("argument order changed the result")
	}
}

func TestBatch_DefersNotificationsAndFlushesOnError(t *testing.T) {
	s := New()
	var batches [][]Mutation
	s.OnMutate(func(muts []Mutation) {
		batch := make([]Mutation, len(muts))
		copy(batch, muts)
		batches = append(batches, batch)
	})

	err := s.Batch(func() error {
		if _, err := s.AddNode(NodeAttrs{Type: common.NodeTypeNote, Label: "a"}); err != nil {
			return err
		}
		if _, err := s.AddNode(NodeAttrs{Type: common.NodeTypeNote, Label: "b"}); err != nil {
			return err
		}
		if len(batches) != 0 {
			t.Fatal("notifications delivered inside batch")
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected batch error to propagate")
	}
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one grouped delivery of 2 mutations, got %v", batches)
	}
	if s.NodeCount() != 2 {
		t.Fatalf("mutations before the error must stay applied, count=%d", s.NodeCount())
	}
}

func TestGeneration_AdvancesPerMutation(t *testing.T) {
	s := New()
	before := s.Generation()
	mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeNote, Label: "n"})
	if s.Generation() <= before {
		t.Fatal("generation did not advance")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	s := New()
	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a", EntityKind: "CHARACTER"})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b", EntityKind: "PLACE"})
	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: b.ID, Type: "LOCATED_IN"}); err != nil {
		t.Fatal(err)
	}

	restored := New()
	if err := restored.Restore(s.Nodes(), s.Edges()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.NodeCount() != 2 || restored.EdgeCount() != 1 {
		t.Fatalf("restore lost data: nodes=%d edges=%d", restored.NodeCount(), restored.EdgeCount())
	}
	if ids := restored.Index().ByKind("CHARACTER"); len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("index not rebuilt on restore: %v", ids)
	}

	if err := restored.Restore(nil, nil); err == nil {
		t.Fatal("expected error restoring into a non-empty store")
	}
}
