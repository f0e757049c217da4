package common

import (
	"fmt"

	"github.com/go-playground/validator"
)

// ExtractedEntity is the candidate structure produced by the extraction
// collaborators (pattern, statistical NER, LLM). The engine only ever
// receives well-formed candidates: malformed document content is handled
// inside the extraction pipeline and never reaches this boundary.
type ExtractedEntity struct {
	Kind       string           `json:"kind" validate:"required"`
	Label      string           `json:"label" validate:"required"`
	Subtype    string           `json:"subtype,omitempty"`
	Confidence float64          `json:"confidence" validate:"gte=0,lte=1"`
	Method     ExtractionMethod `json:"extractionMethod" validate:"required"`
	Positions  []Mention        `json:"positions"`
	Attributes map[string]any   `json:"attributes,omitempty"`
}

// ExtractedRelationship is a candidate edge between two extracted
// entities, identified by label and kind rather than node id since the
// pipelines run before canonical ids exist.
type ExtractedRelationship struct {
	SourceLabel      string           `json:"sourceLabel" validate:"required"`
	SourceKind       string           `json:"sourceKind" validate:"required"`
	TargetLabel      string           `json:"targetLabel" validate:"required"`
	TargetKind       string           `json:"targetKind" validate:"required"`
	RelationshipType string           `json:"relationshipType" validate:"required"`
	Weight           float64          `json:"weight"`
	Confidence       float64          `json:"confidence" validate:"gte=0,lte=1"`
	Method           ExtractionMethod `json:"extractionMethod" validate:"required"`
	NoteIDs          []string         `json:"noteIds"`
}

// ExtractionResult bundles one pipeline run over a corpus.
type ExtractionResult struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}

var validate = validator.New()

// ValidateEntity checks an extraction candidate against the boundary
// contract. Candidates failing validation must be rejected by the caller
// before they reach the graph.
func ValidateEntity(e *ExtractedEntity) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid extracted entity %q: %w", e.Label, err)
	}
	return nil
}

// ValidateRelationship checks a relationship candidate against the
// boundary contract.
func ValidateRelationship(r *ExtractedRelationship) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid extracted relationship %s->%s: %w", r.SourceLabel, r.TargetLabel, err)
	}
	return nil
}

// ValidateResult validates every candidate in an extraction result.
func ValidateResult(res *ExtractionResult) error {
	for i := range res.Entities {
		if err := ValidateEntity(&res.Entities[i]); err != nil {
			return err
		}
	}
	for i := range res.Relationships {
		if err := ValidateRelationship(&res.Relationships[i]); err != nil {
			return err
		}
	}
	return nil
}
