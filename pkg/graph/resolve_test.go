package graph

import (
	"math"
	"testing"

	"loreweave/pkg/common"
)

func TestCanonicalEntityID(t *testing.T) {
	cases := []struct {
		kind, label, want string
	}{
		{"character", "Aragorn ", "CHARACTER:ARAGORN"},
		{"CHARACTER", "aragorn", "CHARACTER:ARAGORN"},
		{"place", "  the   shire ", "PLACE:THE_SHIRE"},
		{"Place", "The Shire", "PLACE:THE_SHIRE"},
	}
	for _, c := range cases {
		if got := CanonicalEntityID(c.kind, c.label); got != c.want {
			t.Errorf("CanonicalEntityID(%q, %q) = %q, want %q", c.kind, c.label, got, c.want)
		}
	}
}

func TestAddExtractedEntity_CreatesThenMerges(t *testing.T) {
	s := New()
	r := NewResolver(s)

	first, err := r.AddExtractedEntity("Frodo", "CHARACTER", common.Extraction{
		Method:     common.MethodNER,
		Confidence: 0.8,
		Mentions:   []common.Mention{{DocumentID: "doc1", CharPosition: 10}},
	}, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Extraction.Frequency != 1 {
		t.Fatalf("frequency should default to mention count, got %d", first.Extraction.Frequency)
	}

	second, err := r.AddExtractedEntity("Frodo", "CHARACTER", common.Extraction{
		Method:     common.MethodLLM,
		Confidence: 0.6,
		Mentions: []common.Mention{
			{DocumentID: "doc2", CharPosition: 5},
			{DocumentID: "doc2", CharPosition: 90},
		},
	}, "doc2")
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Fatalf("same label+kind must merge into one node: %s vs %s", first.ID, second.ID)
	}
	if s.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", s.NodeCount())
	}
	if second.Extraction.Frequency != 3 {
		t.Fatalf("frequencies must sum: got %d", second.Extraction.Frequency)
	}
	if len(second.Extraction.Mentions) != 3 {
		t.Fatalf("mentions must concatenate: got %d", len(second.Extraction.Mentions))
	}
	// Pairwise merge uses the simple mean.
	if math.Abs(second.Extraction.Confidence-0.7) > 1e-9 {
		t.Fatalf("confidence should be (0.8+0.6)/2, got %f", second.Extraction.Confidence)
	}
}

func TestAddExtractedEntity_ManualEntityAdoptsIncomingConfidence(t *testing.T) {
	s := New()
	r := NewResolver(s)

	manual := mustAddNode(t, s, NodeAttrs{
		Type: common.NodeTypeEntity, Label: "Gandalf", EntityKind: "CHARACTER", IsEntity: true,
	})

	merged, err := r.AddExtractedEntity("Gandalf", "CHARACTER", common.Extraction{
		Method:     common.MethodNER,
		Confidence: 0.8,
		Mentions:   []common.Mention{{DocumentID: "doc1", CharPosition: 3}},
	}, "doc1")
	if err != nil {
		t.Fatal(err)
	}

	if merged.ID != manual.ID {
		t.Fatalf("extraction must merge into the manual node: %s vs %s", merged.ID, manual.ID)
	}
	// No prior confidence to average against: 0.8 stays 0.8, not 0.4.
	if math.Abs(merged.Extraction.Confidence-0.8) > 1e-9 {
		t.Fatalf("confidence must be adopted unchanged, got %f", merged.Extraction.Confidence)
	}
	if merged.Extraction.Frequency != 1 || len(merged.Extraction.Mentions) != 1 {
		t.Fatalf("extraction block wrong: %+v", merged.Extraction)
	}
}

func TestAddExtractedEntity_KindDistinguishes(t *testing.T) {
	s := New()
	r := NewResolver(s)

	if _, err := r.AddExtractedEntity("Phoenix", "CHARACTER", common.Extraction{Confidence: 0.9}, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddExtractedEntity("Phoenix", "PLACE", common.Extraction{Confidence: 0.9}, "doc1"); err != nil {
		t.Fatal(err)
	}
	if s.NodeCount() != 2 {
		t.Fatalf("same label with different kinds must stay distinct, got %d nodes", s.NodeCount())
	}
}

func TestMergeExtractionResults_WeightedConfidence(t *testing.T) {
	idx0 := 0
	results := []common.ExtractedEntity{
		{
			Kind: "CHARACTER", Label: "Gandalf", Method: common.MethodNER, Confidence: 0.9,
			Positions: []common.Mention{
				{DocumentID: "doc1", SentenceIndex: &idx0},
				{DocumentID: "doc1"},
				{DocumentID: "doc2"},
			},
		},
		{
			Kind: "character", Label: " gandalf", Method: common.MethodLLM, Confidence: 0.5,
			Positions:  []common.Mention{{DocumentID: "doc3"}},
			Attributes: map[string]any{"title": "wizard"},
		},
	}

	merged := MergeExtractionResults(results)
	if len(merged) != 1 {
		t.Fatalf("expected 1 canonical group, got %d", len(merged))
	}
	g := merged[0]
	if g.CanonicalID != "CHARACTER:GANDALF" {
		t.Fatalf("unexpected canonical id: %s", g.CanonicalID)
	}
	if g.Frequency != 4 {
		t.Fatalf("frequency must sum mention counts: got %d", g.Frequency)
	}
	if len(g.Methods) != 2 {
		t.Fatalf("methods must union: %v", g.Methods)
	}
	if g.Attributes["title"] != "wizard" {
		t.Fatalf("attributes must merge: %v", g.Attributes)
	}
	// Mention-weighted mean: (3*0.9 + 1*0.5) / 4 = 0.8
	if math.Abs(g.Confidence-0.8) > 1e-9 {
		t.Fatalf("expected weighted confidence 0.8, got %f", g.Confidence)
	}
}

func TestMergeExtractionResults_ZeroWeightFallsBackToPlainMean(t *testing.T) {
	results := []common.ExtractedEntity{
		{Kind: "PLACE", Label: "Bree", Method: common.MethodRegex, Confidence: 0.4},
		{Kind: "PLACE", Label: "Bree", Method: common.MethodLLM, Confidence: 0.8},
	}
	merged := MergeExtractionResults(results)
	if len(merged) != 1 {
		t.Fatalf("expected 1 group, got %d", len(merged))
	}
	if math.Abs(merged[0].Confidence-0.6) > 1e-9 {
		t.Fatalf("expected plain mean 0.6, got %f", merged[0].Confidence)
	}
	// Each mention-less contribution still counts once.
	if merged[0].Frequency != 2 {
		t.Fatalf("expected frequency 2, got %d", merged[0].Frequency)
	}
}

func TestMergeExtractionResults_PreservesFirstSeenOrder(t *testing.T) {
	results := []common.ExtractedEntity{
		{Kind: "CHARACTER", Label: "Sam", Method: common.MethodNER, Confidence: 0.9},
		{Kind: "CHARACTER", Label: "Pippin", Method: common.MethodNER, Confidence: 0.9},
		{Kind: "CHARACTER", Label: "sam", Method: common.MethodLLM, Confidence: 0.9},
	}
	merged := MergeExtractionResults(results)
	if len(merged) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(merged))
	}
	if merged[0].CanonicalID != "CHARACTER:SAM" || merged[1].CanonicalID != "CHARACTER:PIPPIN" {
		t.Fatalf("first-seen order not preserved: %s, %s", merged[0].CanonicalID, merged[1].CanonicalID)
	}
}

func TestMergeEntities_ReassignsEdgesAndUnionsExtraction(t *testing.T) {
	s := New()
	r := NewResolver(s)

	note := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeNote, Label: "Session 3"})
	source := mustAddNode(t, s, NodeAttrs{
		Type: common.NodeTypeEntity, Label: "Strider", EntityKind: "CHARACTER", IsEntity: true,
		Extraction: &common.Extraction{
			Method: common.MethodNER, Confidence: 0.7, Frequency: 2,
			Mentions: []common.Mention{{DocumentID: "doc1"}, {DocumentID: "doc2"}},
		},
	})
	target := mustAddNode(t, s, NodeAttrs{
		Type: common.NodeTypeEntity, Label: "Aragorn", EntityKind: "CHARACTER", IsEntity: true,
		Extraction: &common.Extraction{
			Method: common.MethodLLM, Confidence: 0.9, Frequency: 3,
			Mentions: []common.Mention{{DocumentID: "doc3"}},
		},
	})

	if _, err := s.AddEdge(EdgeAttrs{Source: note.ID, Target: source.ID, Type: common.EdgeTypeMentions}); err != nil {
		t.Fatal(err)
	}

	merged, err := r.MergeEntities(source.ID, target.ID)
	if err != nil {
		t.Fatal(err)
	}

	if s.HasNode(source.ID) {
		t.Fatal("source entity must be deleted after merge")
	}
	edges := s.GetEdgesBetween(note.ID, target.ID)
	if len(edges) != 1 || edges[0].Type != common.EdgeTypeMentions {
		t.Fatalf("MENTIONS edge not reassigned to target: %v", edges)
	}
	if merged.Extraction.Frequency != 5 {
		t.Fatalf("frequencies must sum: got %d", merged.Extraction.Frequency)
	}
	if len(merged.Extraction.Mentions) != 3 {
		t.Fatalf("mentions must union: got %d", len(merged.Extraction.Mentions))
	}
	// Manual merges keep the target's confidence untouched.
	if merged.Extraction.Confidence != 0.9 {
		t.Fatalf("target confidence changed: %f", merged.Extraction.Confidence)
	}
}

func TestMergeEntities_DropsWouldBeSelfLoops(t *testing.T) {
	s := New()
	r := NewResolver(s)

	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a", IsEntity: true})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b", IsEntity: true})
	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: b.ID, Type: common.EdgeTypeKnows}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.MergeEntities(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if s.EdgeCount() != 0 {
		t.Fatalf("edge between merged pair must be dropped, got %d edges", s.EdgeCount())
	}
}

func TestMergeEntities_FoldsParallelEdges(t *testing.T) {
	s := New()
	r := NewResolver(s)

	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a", IsEntity: true})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b", IsEntity: true})
	c := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "c", IsEntity: true})

	if _, err := s.AddEdge(EdgeAttrs{Source: a.ID, Target: c.ID, Type: common.EdgeTypeKnows, Weight: 2, NoteIDs: []string{"doc1"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEdge(EdgeAttrs{Source: b.ID, Target: c.ID, Type: common.EdgeTypeKnows, Weight: 3, NoteIDs: []string{"doc2"}}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.MergeEntities(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	edges := s.GetEdgesBetween(b.ID, c.ID)
	if len(edges) != 1 {
		t.Fatalf("parallel same-type edges must fold into one, got %d", len(edges))
	}
	if edges[0].Weight != 5 {
		t.Fatalf("weights must sum on fold: got %f", edges[0].Weight)
	}
	if len(edges[0].NoteIDs) != 2 {
		t.Fatalf("note ids must union on fold: %v", edges[0].NoteIDs)
	}
}

func TestMergeEntities_RekeysDerivedEdges(t *testing.T) {
	s := New()
	r := NewResolver(s)

	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a", IsEntity: true})
	b := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "b", IsEntity: true})
	c := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "c", IsEntity: true})

	derivedID := DerivedEdgeID(a.ID, c.ID, common.EdgeTypeCoOccurs)
	if _, err := s.AddEdge(EdgeAttrs{
		ID: derivedID, Source: a.ID, Target: c.ID,
		Type: common.EdgeTypeCoOccurs, Weight: 1, Bidirectional: true,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.MergeEntities(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	wantID := DerivedEdgeID(b.ID, c.ID, common.EdgeTypeCoOccurs)
	if s.GetEdge(wantID) == nil {
		t.Fatalf("derived edge not re-keyed; edges: %v", s.Edges())
	}
	if s.GetEdge(derivedID) != nil {
		t.Fatal("old derived key still present")
	}
}

func TestMergeEntities_Preconditions(t *testing.T) {
	s := New()
	r := NewResolver(s)
	a := mustAddNode(t, s, NodeAttrs{Type: common.NodeTypeEntity, Label: "a", IsEntity: true})

	if _, err := r.MergeEntities(a.ID, "node-missing"); err == nil {
		t.Fatal("expected error for missing target")
	}
	if _, err := r.MergeEntities(a.ID, a.ID); err == nil {
		t.Fatal("expected error for self-merge")
	}
}
