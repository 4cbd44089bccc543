package model

import (
	"strings"
	"time"
)

// Entity represents a named real-world subject (company, index, concept)
// in the graph store. Identity is the normalized name.
type Entity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"entity_type"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEntityName normalizes an entity name for identity matching.
func NormalizeEntityName(name string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(name)), " ")
}
