package model

import "time"

// Feed is one configured syndication endpoint with its source category.
type Feed struct {
	URL      string `json:"url"`
	Category string `json:"category"`
}

// PipelineConfig represents configuration for one ingestion pipeline
type PipelineConfig struct {
	// Collection parameters
	Feeds        []Feed `json:"feeds"`
	LookbackDays int    `json:"lookback_days"`

	// Relevance filtering
	Keywords           []string `json:"keywords"`
	RelevanceThreshold float64  `json:"relevance_threshold"`
	MaxKeywordWeight   float64  `json:"max_keyword_weight"`

	// Enrichment
	EmbeddingDim   int           `json:"embedding_dim"`
	EmbedBatchSize int           `json:"embed_batch_size"`
	BodyCharLimit  int           `json:"body_char_limit"`
	HTTPTimeout    time.Duration `json:"http_timeout"`

	// Extraction
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MinSentenceLength   int     `json:"min_sentence_length"`

	// Graph construction
	SimilarityThreshold float64  `json:"similarity_threshold"`
	Watchlist           []string `json:"watchlist"`

	// Concurrency
	MaxWorkers int `json:"max_workers"`
}

// DefaultPipelineConfig returns a sensible default configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Feeds: []Feed{
			{URL: "https://www.mk.co.kr/rss/30100041/", Category: "economy"},
			{URL: "https://www.mk.co.kr/rss/50200011/", Category: "securities"},
		},
		LookbackDays:       1,
		RelevanceThreshold: 0.1,
		MaxKeywordWeight:   0.2,
		Keywords: []string{
			"stock", "stocks", "share", "shares", "equity", "market",
			"invest", "investment", "investor", "earnings", "dividend",
			"index", "kospi", "kosdaq", "nasdaq", "bond", "interest rate",
			"inflation", "economy", "economic", "securities",
		},
		EmbeddingDim:        384,
		EmbedBatchSize:      16,
		BodyCharLimit:       2000,
		HTTPTimeout:         10 * time.Second,
		ConfidenceThreshold: 0.7,
		MinSentenceLength:   10,
		SimilarityThreshold: 0.7,
		Watchlist: []string{
			"Samsung Electronics", "SK Hynix", "KOSPI", "KOSDAQ",
			"Federal Reserve", "Bank of Korea", "S&P 500", "Nasdaq",
		},
		MaxWorkers: 5,
	}
}
