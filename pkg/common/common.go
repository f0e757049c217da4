package common

// NodeType classifies a node in the unified graph. The set is closed:
// every node belongs to exactly one of these categories.
type NodeType string

const (
	NodeTypeNote      NodeType = "NOTE"
	NodeTypeFolder    NodeType = "FOLDER"
	NodeTypeEntity    NodeType = "ENTITY"
	NodeTypeBlueprint NodeType = "BLUEPRINT"
	NodeTypeTemporal  NodeType = "TEMPORAL"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeNote, NodeTypeFolder, NodeTypeEntity, NodeTypeBlueprint, NodeTypeTemporal:
		return true
	}
	return false
}

// Edge type constants. The edge type space is open: extraction rules can
// introduce new semantic types at runtime, so these are conventions rather
// than an exhaustive enumeration.
const (
	EdgeTypeContains   = "CONTAINS"
	EdgeTypeParentOf   = "PARENT_OF"
	EdgeTypeBacklink   = "BACKLINK"
	EdgeTypeMentions   = "MENTIONS"
	EdgeTypeReferences = "REFERENCES"
	EdgeTypeKnows      = "KNOWS"
	EdgeTypeOwns       = "OWNS"
	EdgeTypeLocatedIn  = "LOCATED_IN"
	EdgeTypeMemberOf   = "MEMBER_OF"
	EdgeTypeCausedBy   = "CAUSED_BY"
	EdgeTypeLeadsTo    = "LEADS_TO"
	EdgeTypeBefore     = "BEFORE"
	EdgeTypeAfter      = "AFTER"
	EdgeTypeDuring     = "DURING"
	EdgeTypeCoOccurs   = "CO_OCCURS"
)

// ExtractionMethod identifies which pipeline produced a node or edge.
type ExtractionMethod string

const (
	MethodRegex  ExtractionMethod = "regex"
	MethodNER    ExtractionMethod = "ner"
	MethodLLM    ExtractionMethod = "llm"
	MethodManual ExtractionMethod = "manual"
)

// Mention records a single occurrence of an entity inside a document.
// SentenceIndex is optional; mentions without one are excluded from
// sentence-level co-occurrence windowing.
type Mention struct {
	DocumentID    string `json:"documentId"`
	CharPosition  int    `json:"charPosition"`
	SentenceIndex *int   `json:"sentenceIndex,omitempty"`
	Context       string `json:"context,omitempty"`
}

// Extraction carries the provenance block of a node produced by an
// automated extraction pipeline.
type Extraction struct {
	Method     ExtractionMethod `json:"method"`
	Confidence float64          `json:"confidence"`
	Frequency  int              `json:"frequency"`
	Mentions   []Mention        `json:"mentions"`
}

// Clone returns a deep copy of the extraction block.
func (e *Extraction) Clone() *Extraction {
	if e == nil {
		return nil
	}
	out := *e
	out.Mentions = make([]Mention, len(e.Mentions))
	copy(out.Mentions, e.Mentions)
	return &out
}

// Node represents a single vertex in the unified graph: a note, a folder,
// an extracted entity, a blueprint (template), or a temporal anchor.
//
// The ID is assigned on insertion and is immutable afterwards. ParentID,
// if set, refers to a FOLDER node; a dangling ParentID left behind by a
// parent's deletion is tolerated on reads and treated as "no parent" by
// hierarchy queries.
type Node struct {
	ID            string         `json:"id"`
	Type          NodeType       `json:"type"`
	Label         string         `json:"label"`
	EntityKind    string         `json:"entityKind,omitempty"`
	EntitySubtype string         `json:"entitySubtype,omitempty"`
	ParentID      string         `json:"parentId,omitempty"`
	SourceNoteID  string         `json:"sourceNoteId,omitempty"`
	BlueprintID   string         `json:"blueprintId,omitempty"`
	Extraction    *Extraction    `json:"extraction,omitempty"`
	IsPinned      bool           `json:"isPinned,omitempty"`
	Favorite      bool           `json:"favorite,omitempty"`
	IsEntity      bool           `json:"isEntity,omitempty"`
	IsTypedRoot   bool           `json:"isTypedRoot,omitempty"`
	Classes       []string       `json:"classes,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	CreatedAt     int64          `json:"createdAt"`
	UpdatedAt     int64          `json:"updatedAt"`
}

// Clone returns a copy of the node that shares no mutable state with the
// original. Mutating the copy never affects the store.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Extraction = n.Extraction.Clone()
	if n.Classes != nil {
		out.Classes = make([]string, len(n.Classes))
		copy(out.Classes, n.Classes)
	}
	if n.Properties != nil {
		out.Properties = make(map[string]any, len(n.Properties))
		for k, v := range n.Properties {
			out.Properties[k] = v
		}
	}
	return &out
}

// Edge represents a directed edge between two nodes. Many consumers treat
// the relation as undirected; direction is preserved for the types where
// it matters (CONTAINS, BEFORE, CAUSED_BY, ...).
//
// Weight is an accumulator whose semantics depend on the edge type: for
// CO_OCCURS it is the number of shared documents, for semantic types it
// is a strength score.
type Edge struct {
	ID                string             `json:"id"`
	Source            string             `json:"source"`
	Target            string             `json:"target"`
	Type              string             `json:"type"`
	Weight            float64            `json:"weight"`
	Confidence        float64            `json:"confidence"`
	NoteIDs           []string           `json:"noteIds,omitempty"`
	ExtractionMethods []ExtractionMethod `json:"extractionMethods,omitempty"`
	Bidirectional     bool               `json:"bidirectional,omitempty"`
	Properties        map[string]any     `json:"properties,omitempty"`
	CreatedAt         int64              `json:"createdAt"`
	UpdatedAt         int64              `json:"updatedAt"`
}

// Clone returns a copy of the edge that shares no mutable state with the
// original.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	out := *e
	if e.NoteIDs != nil {
		out.NoteIDs = make([]string, len(e.NoteIDs))
		copy(out.NoteIDs, e.NoteIDs)
	}
	if e.ExtractionMethods != nil {
		out.ExtractionMethods = make([]ExtractionMethod, len(e.ExtractionMethods))
		copy(out.ExtractionMethods, e.ExtractionMethods)
	}
	if e.Properties != nil {
		out.Properties = make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = v
		}
	}
	return &out
}

// HasNoteID reports whether the edge already credits the given document.
func (e *Edge) HasNoteID(noteID string) bool {
	for _, id := range e.NoteIDs {
		if id == noteID {
			return true
		}
	}
	return false
}

// AddNoteID adds a contributing document id, keeping set semantics.
func (e *Edge) AddNoteID(noteID string) {
	if noteID == "" || e.HasNoteID(noteID) {
		return
	}
	e.NoteIDs = append(e.NoteIDs, noteID)
}

// AddExtractionMethod unions a method into the edge's provenance set.
func (e *Edge) AddExtractionMethod(method ExtractionMethod) {
	if method == "" {
		return
	}
	for _, m := range e.ExtractionMethods {
		if m == method {
			return
		}
	}
	e.ExtractionMethods = append(e.ExtractionMethods, method)
}
