package query

import (
	"math"
	"reflect"
	"testing"

	"loreweave/pkg/graph"
)

func (g *testGraph) weightedEdge(t *testing.T, a, b, edgeType string, weight float64) {
	t.Helper()
	if _, err := g.s.AddEdge(graph.EdgeAttrs{
		ID:     graph.DerivedEdgeID(g.ids[a], g.ids[b], edgeType),
		Source: g.ids[a],
		Target: g.ids[b],
		Type:   edgeType,
		Weight: weight,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestShortestPath_HopCount(t *testing.T) {
	g := newTestGraph(t)
	for _, l := range []string{"a", "b", "c", "d"} {
		g.node(t, l)
	}
	g.edge(t, "a", "b", "KNOWS", false)
	g.edge(t, "b", "c", "KNOWS", false)
	g.edge(t, "c", "d", "KNOWS", false)
	// A direct long-cut must not beat the hop count.
	g.edge(t, "a", "d", "KNOWS", false)

	path := ShortestPath(g.s, g.ids["a"], g.ids["d"])
	if path == nil {
		t.Fatal("expected a path")
	}
	if path.Hops != 1 {
		t.Fatalf("hops = %d, want 1", path.Hops)
	}
	if got := g.labels(path.Nodes); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Fatalf("path = %v", got)
	}
}

func TestShortestPath_WeightBreaksHopTies(t *testing.T) {
	g := newTestGraph(t)
	for _, l := range []string{"a", "light", "heavy", "d"} {
		g.node(t, l)
	}
	g.weightedEdge(t, "a", "light", "ROAD", 1)
	g.weightedEdge(t, "light", "d", "ROAD", 1)
	g.weightedEdge(t, "a", "heavy", "ROAD", 5)
	g.weightedEdge(t, "heavy", "d", "ROAD", 5)

	path := ShortestPath(g.s, g.ids["a"], g.ids["d"])
	if path == nil {
		t.Fatal("expected a path")
	}
	if path.Hops != 2 {
		t.Fatalf("hops = %d, want 2", path.Hops)
	}
	if got := g.labels(path.Nodes); !reflect.DeepEqual(got, []string{"a", "light", "d"}) {
		t.Fatalf("tie must resolve to the lighter path, got %v", got)
	}
	if math.Abs(path.Weight-2) > 1e-9 {
		t.Fatalf("weight = %f, want 2", path.Weight)
	}
}

func TestShortestPath_SameNode(t *testing.T) {
	g := newTestGraph(t)
	g.node(t, "a")

	path := ShortestPath(g.s, g.ids["a"], g.ids["a"])
	if path == nil {
		t.Fatal("expected a single-node path")
	}
	if path.Hops != 0 || len(path.Nodes) != 1 || path.Nodes[0] != g.ids["a"] {
		t.Fatalf("unexpected path: %+v", path)
	}
}

func TestShortestPath_Unreachable(t *testing.T) {
	g := newTestGraph(t)
	g.node(t, "a")
	g.node(t, "b")

	if path := ShortestPath(g.s, g.ids["a"], g.ids["b"]); path != nil {
		t.Fatalf("expected nil for unreachable target, got %+v", path)
	}
	if path := ShortestPath(g.s, g.ids["a"], "node-missing"); path != nil {
		t.Fatalf("expected nil for missing target, got %+v", path)
	}
}

func TestEccentricity(t *testing.T) {
	g := newTestGraph(t)
	for _, l := range []string{"a", "b", "c"} {
		g.node(t, l)
	}
	g.edge(t, "a", "b", "KNOWS", false)
	g.edge(t, "b", "c", "KNOWS", false)

	if e := Eccentricity(g.s, g.ids["a"]); e != 2 {
		t.Fatalf("endpoint eccentricity = %d, want 2", e)
	}
	if e := Eccentricity(g.s, g.ids["b"]); e != 1 {
		t.Fatalf("middle eccentricity = %d, want 1", e)
	}
	if e := Eccentricity(g.s, "node-missing"); e != -1 {
		t.Fatalf("missing node eccentricity = %d, want -1", e)
	}
}

func TestDiameterAndRadius(t *testing.T) {
	g := newTestGraph(t)
	for _, l := range []string{"a", "b", "c", "d"} {
		g.node(t, l)
	}
	g.edge(t, "a", "b", "KNOWS", false)
	g.edge(t, "b", "c", "KNOWS", false)
	g.edge(t, "c", "d", "KNOWS", false)

	if d := Diameter(g.s); d != 3 {
		t.Fatalf("diameter = %d, want 3", d)
	}
	if r := Radius(g.s); r != 2 {
		t.Fatalf("radius = %d, want 2", r)
	}
}

func TestRadius_EdgelessGraph(t *testing.T) {
	g := newTestGraph(t)
	g.node(t, "a")
	g.node(t, "b")

	if r := Radius(g.s); r != 0 {
		t.Fatalf("edgeless radius = %d, want 0", r)
	}
	if d := Diameter(g.s); d != 0 {
		t.Fatalf("edgeless diameter = %d, want 0", d)
	}
}
