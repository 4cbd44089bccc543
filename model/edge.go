package model

import (
	"time"

	"github.com/google/uuid"
)

// EdgeType represents the type of relationship between nodes.
// Extracted relation labels and derived relationship types share the
// same edge table.
type EdgeType string

const (
	EdgeTypeRise         EdgeType = "rise"
	EdgeTypeFall         EdgeType = "fall"
	EdgeTypeImpact       EdgeType = "impact"
	EdgeTypeOwnership    EdgeType = "ownership"
	EdgeTypeInvestment   EdgeType = "investment"
	EdgeTypeSimilarTo    EdgeType = "similar_to"
	EdgeTypeSameCategory EdgeType = "same_category"
	EdgeTypeMentions     EdgeType = "mentions"
)

// Edge represents a typed, weighted relationship between two nodes.
// Exactly one source and one target reference is set: articles connect
// via the article IDs, entities via the entity IDs, and mention edges
// mix the two. At most one edge exists per (source, target, type).
type Edge struct {
	ID              uuid.UUID `json:"id"`
	SourceArticleID *string   `json:"source_article_id,omitempty"`
	TargetArticleID *string   `json:"target_article_id,omitempty"`
	SourceEntityID  *int64    `json:"source_entity_id,omitempty"`
	TargetEntityID  *int64    `json:"target_entity_id,omitempty"`
	EdgeType        EdgeType  `json:"edge_type"`
	Weight          float64   `json:"weight"`
	Metadata        Metadata  `json:"metadata,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EdgeTypeForRelation maps an extracted relation label to its edge type.
func EdgeTypeForRelation(r Relation) EdgeType {
	return EdgeType(r)
}
