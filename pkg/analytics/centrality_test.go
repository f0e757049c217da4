package analytics

import (
	"fmt"
	"math"
	"testing"

	"loreweave/pkg/common"
	"loreweave/pkg/graph"
)

func pathGraph(t *testing.T, n int) (*graph.Store, []string) {
	t.Helper()
	s := graph.New()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		node, err := s.AddNode(graph.NodeAttrs{
			Type:  common.NodeTypeEntity,
			Label: fmt.Sprintf("n%03d", i),
		})
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = node.ID
	}
	for i := 0; i < n-1; i++ {
		if _, err := s.AddEdge(graph.EdgeAttrs{
			Source: ids[i], Target: ids[i+1], Type: common.EdgeTypeKnows,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return s, ids
}

func starGraph(t *testing.T, leaves int) (*graph.Store, string, []string) {
	t.Helper()
	s := graph.New()
	hub, err := s.AddNode(graph.NodeAttrs{Type: common.NodeTypeEntity, Label: "hub"})
	if err != nil {
		t.Fatal(err)
	}
	leafIDs := make([]string, leaves)
	for i := 0; i < leaves; i++ {
		leaf, err := s.AddNode(graph.NodeAttrs{
			Type:  common.NodeTypeEntity,
			Label: fmt.Sprintf("leaf%03d", i),
		})
		if err != nil {
			t.Fatal(err)
		}
		leafIDs[i] = leaf.ID
		if _, err := s.AddEdge(graph.EdgeAttrs{
			Source: hub.ID, Target: leaf.ID, Type: common.EdgeTypeKnows,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return s, hub.ID, leafIDs
}

func TestDegreeCentrality_PathGraph(t *testing.T) {
	s, ids := pathGraph(t, 3)
	scores := DegreeCentrality(s)

	if math.Abs(scores[ids[0]]-0.5) > 1e-9 {
		t.Fatalf("endpoint degree centrality = %f, want 0.5", scores[ids[0]])
	}
	if math.Abs(scores[ids[1]]-1.0) > 1e-9 {
		t.Fatalf("middle degree centrality = %f, want 1.0", scores[ids[1]])
	}
}

func TestDegreeCentrality_SingleNode(t *testing.T) {
	s, ids := pathGraph(t, 1)
	scores := DegreeCentrality(s)
	if scores[ids[0]] != 0 {
		t.Fatalf("isolated node must score 0, got %f", scores[ids[0]])
	}
}

func TestBetweennessCentrality_PathGraph(t *testing.T) {
	s, ids := pathGraph(t, 3)
	scores := BetweennessCentrality(s)

	if math.Abs(scores[ids[1]]-1.0) > 1e-9 {
		t.Fatalf("middle betweenness = %f, want 1.0", scores[ids[1]])
	}
	if scores[ids[0]] != 0 || scores[ids[2]] != 0 {
		t.Fatalf("endpoints must score 0, got %f and %f", scores[ids[0]], scores[ids[2]])
	}
}

func TestBetweennessCentrality_ExactAtLimit(t *testing.T) {
	// 100 nodes total: exact Brandes. Leaves lie on no shortest path.
	s, hubID, leafIDs := starGraph(t, 99)
	scores := BetweennessCentrality(s)

	if scores[leafIDs[0]] != 0 {
		t.Fatalf("exact mode: leaf betweenness must be 0, got %f", scores[leafIDs[0]])
	}
	if math.Abs(scores[hubID]-1.0) > 1e-9 {
		t.Fatalf("exact mode: hub betweenness = %f, want 1.0", scores[hubID])
	}
}

func TestBetweennessCentrality_FallbackAboveLimit(t *testing.T) {
	// 101 nodes total: the degree approximation kicks in, so leaves get
	// a small non-zero score.
	s, hubID, leafIDs := starGraph(t, 100)
	scores := BetweennessCentrality(s)

	if scores[leafIDs[0]] <= 0 {
		t.Fatalf("fallback mode: leaf score must be positive, got %f", scores[leafIDs[0]])
	}
	if math.Abs(scores[hubID]-1.0) > 1e-9 {
		t.Fatalf("fallback mode: hub score = %f, want 1.0", scores[hubID])
	}
	for id, score := range scores {
		if score < 0 || score > 1 {
			t.Fatalf("score out of range for %s: %f", id, score)
		}
	}
}

func TestClosenessCentrality_PathGraph(t *testing.T) {
	s, ids := pathGraph(t, 3)
	scores := ClosenessCentrality(s)

	if math.Abs(scores[ids[1]]-1.0) > 1e-9 {
		t.Fatalf("middle closeness = %f, want 1.0", scores[ids[1]])
	}
	want := (2.0 / 2.0) * (2.0 / 3.0)
	if math.Abs(scores[ids[0]]-want) > 1e-9 {
		t.Fatalf("endpoint closeness = %f, want %f", scores[ids[0]], want)
	}
}

func TestClosenessCentrality_DisconnectedFragmentScoresLow(t *testing.T) {
	s, ids := pathGraph(t, 4)
	// Detach into two pairs.
	for _, edge := range s.GetEdgesBetween(ids[1], ids[2]) {
		s.RemoveEdge(edge.ID)
	}

	scores := ClosenessCentrality(s)
	// Each node reaches 1 of 3 others at distance 1: (1/3)*(1/1).
	want := 1.0 / 3.0
	if math.Abs(scores[ids[0]]-want) > 1e-9 {
		t.Fatalf("fragment closeness = %f, want %f", scores[ids[0]], want)
	}
}

func TestClosenessCentrality_Isolated(t *testing.T) {
	s, ids := pathGraph(t, 1)
	scores := ClosenessCentrality(s)
	if scores[ids[0]] != 0 {
		t.Fatalf("isolated node closeness must be 0, got %f", scores[ids[0]])
	}
}
