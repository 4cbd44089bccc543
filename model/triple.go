package model

// Relation is the closed vocabulary of extracted relation labels.
type Relation string

const (
	RelationRise       Relation = "rise"
	RelationFall       Relation = "fall"
	RelationImpact     Relation = "impact"
	RelationOwnership  Relation = "ownership"
	RelationInvestment Relation = "investment"
)

// Triple is one extracted factual assertion. Triples are produced
// transiently per run and only persist as graph edges.
type Triple struct {
	Subject    string   `json:"subject"`
	Relation   Relation `json:"relation"`
	Object     string   `json:"object"`
	Confidence float64  `json:"confidence"`
	ArticleID  string   `json:"article_id"`
}
