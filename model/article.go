package model

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// Article represents one ingested news item (node in the graph).
// The embedding is absent until the enricher sets it.
type Article struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary,omitempty"`
	Body           string    `json:"body,omitempty"`
	URL            string    `json:"url"`
	Category       string    `json:"category,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	RelevanceScore float64   `json:"relevance_score,omitempty"`
	Embedding      []float32 `json:"embedding,omitempty"`
	Metadata       Metadata  `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DeriveArticleID derives a stable article ID from the canonical URL.
// The same URL always yields the same ID, which is what makes
// re-ingestion idempotent: every downstream merge keys on this value.
func DeriveArticleID(url string) string {
	canonical := strings.TrimRight(strings.TrimSpace(url), "/")
	sum := sha1.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// EmbeddingText returns the canonical concatenation used as embedding
// input. The body is capped at bodyCap characters to bound cost.
func (a *Article) EmbeddingText(bodyCap int) string {
	parts := []string{a.Title}
	if a.Summary != "" {
		parts = append(parts, a.Summary)
	}
	if a.Body != "" {
		body := a.Body
		if bodyCap > 0 && len(body) > bodyCap {
			// Walk back to a rune boundary so multi-byte text is never
			// cut mid-rune.
			cut := bodyCap
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n")
}
