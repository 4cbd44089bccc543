package model

import "time"

// RunStatus is the terminal status of one pipeline run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// RunSummary is the structured result of one pipeline run. It is always
// returned, even when the run fails: stage errors are folded into the
// status and message rather than raised past the scheduler boundary.
type RunSummary struct {
	StartedAt       time.Time     `json:"started_at"`
	Elapsed         time.Duration `json:"elapsed"`
	Collected       int           `json:"collected"`
	Filtered        int           `json:"filtered"`
	Enriched        int           `json:"enriched"`
	Triples         int           `json:"triples"`
	NewArticles     int           `json:"new_articles"`
	UpdatedArticles int           `json:"updated_articles"`
	NewEntities     int           `json:"new_entities"`
	UpdatedEntities int           `json:"updated_entities"`
	NewEdges        int           `json:"new_edges"`
	UpdatedEdges    int           `json:"updated_edges"`
	Status          RunStatus     `json:"status"`
	Message         string        `json:"message,omitempty"`
}
