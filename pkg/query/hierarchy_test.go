package query

import (
	"reflect"
	"testing"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

func buildHierarchy(t *testing.T) *testGraph {
	t.Helper()
	g := newTestGraph(t)
	g.node(t, "campaign", graph.NodeAttrs{Type: common.NodeTypeFolder})
	g.node(t, "arc-one", graph.NodeAttrs{Type: common.NodeTypeFolder, ParentID: g.ids["campaign"]})
	g.node(t, "session-2", graph.NodeAttrs{Type: common.NodeTypeNote, ParentID: g.ids["arc-one"]})
	g.node(t, "session-1", graph.NodeAttrs{Type: common.NodeTypeNote, ParentID: g.ids["arc-one"]})
	g.node(t, "appendix", graph.NodeAttrs{Type: common.NodeTypeNote, ParentID: g.ids["campaign"]})
	return g
}

func TestChildren_SortedByLabel(t *testing.T) {
	g := buildHierarchy(t)

	children := Children(g.s, g.ids["arc-one"])
	var labels []string
	for _, c := range children {
		labels = append(labels, c.Label)
	}
	if !reflect.DeepEqual(labels, []string{"session-1", "session-2"}) {
		t.Fatalf("children = %v", labels)
	}

	if got := Children(g.s, g.ids["session-1"]); len(got) != 0 {
		t.Fatalf("leaf must have no children, got %d", len(got))
	}
}

func TestDescendants(t *testing.T) {
	g := buildHierarchy(t)

	descendants := Descendants(g.s, g.ids["campaign"])
	if len(descendants) != 4 {
		t.Fatalf("expected 4 descendants, got %d", len(descendants))
	}
	seen := make(map[string]bool)
	for _, d := range descendants {
		seen[d.Label] = true
	}
	for _, label := range []string{"arc-one", "appendix", "session-1", "session-2"} {
		if !seen[label] {
			t.Fatalf("descendant %q missing from %v", label, seen)
		}
	}
}

func TestAncestors_NearestFirst(t *testing.T) {
	g := buildHierarchy(t)

	ancestors := Ancestors(g.s, g.ids["session-1"])
	var labels []string
	for _, a := range ancestors {
		labels = append(labels, a.Label)
	}
	if !reflect.DeepEqual(labels, []string{"arc-one", "campaign"}) {
		t.Fatalf("ancestors = %v", labels)
	}

	if got := Ancestors(g.s, g.ids["campaign"]); len(got) != 0 {
		t.Fatalf("root must have no ancestors, got %d", len(got))
	}
	if got := Ancestors(g.s, "node-missing"); got != nil {
		t.Fatalf("missing node must yield nil, got %v", got)
	}
}

func TestDepth(t *testing.T) {
	g := buildHierarchy(t)

	if d := Depth(g.s, g.ids["campaign"]); d != 0 {
		t.Fatalf("root depth = %d, want 0", d)
	}
	if d := Depth(g.s, g.ids["session-1"]); d != 2 {
		t.Fatalf("note depth = %d, want 2", d)
	}
}

func TestAncestors_DanglingParentTerminatesChain(t *testing.T) {
	g := buildHierarchy(t)
	if !g.s.RemoveNode(g.ids["arc-one"]) {
		t.Fatal("could not remove intermediate folder")
	}

	if got := Ancestors(g.s, g.ids["session-1"]); len(got) != 0 {
		t.Fatalf("dangling parent must terminate the chain, got %v", got)
	}
	if d := Depth(g.s, g.ids["session-1"]); d != 0 {
		t.Fatalf("dangling parent depth = %d, want 0", d)
	}
}

func TestNodesByTypeAndKind(t *testing.T) {
	g := buildHierarchy(t)
	g.node(t, "Frodo", graph.NodeAttrs{
		Type: common.NodeTypeEntity, EntityKind: "CHARACTER", IsEntity: true,
	})
	g.node(t, "The Shire", graph.NodeAttrs{
		Type: common.NodeTypeEntity, EntityKind: "PLACE", IsEntity: true,
	})

	if got := NodesByType(g.s, common.NodeTypeNote); len(got) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(got))
	}
	characters := EntitiesByKind(g.s, "CHARACTER")
	if len(characters) != 1 || characters[0].Label != "Frodo" {
		t.Fatalf("entities by kind wrong: %v", characters)
	}
}

func TestNodesBySourceNote(t *testing.T) {
	g := newTestGraph(t)
	g.node(t, "Frodo", graph.NodeAttrs{
		Type: common.NodeTypeEntity, EntityKind: "CHARACTER", SourceNoteID: "doc1",
	})
	g.node(t, "Sam", graph.NodeAttrs{
		Type: common.NodeTypeEntity, EntityKind: "CHARACTER", SourceNoteID: "doc2",
	})

	fromDoc1 := NodesBySourceNote(g.s, "doc1")
	if len(fromDoc1) != 1 || fromDoc1[0].Label != "Frodo" {
		t.Fatalf("source note lookup wrong: %v", fromDoc1)
	}
}

func TestSearchByLabel(t *testing.T) {
	g := newTestGraph(t)
	g.node(t, "The Shire")
	g.node(t, "Shire Reckoning")

	exact := SearchByLabel(g.s, "the shire", false)
	if len(exact) != 1 || exact[0].Label != "The Shire" {
		t.Fatalf("exact search wrong: %v", exact)
	}

	fuzzy := SearchByLabel(g.s, "shire", true)
	if len(fuzzy) != 2 {
		t.Fatalf("fuzzy search must match both, got %d", len(fuzzy))
	}
}
