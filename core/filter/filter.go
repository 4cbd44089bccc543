package filter

import (
	"log/slog"
	"strings"

	"newsgraph/model"
)

// Scorer assigns a lexical relevance score in [0,1] to article titles.
// It is a deterministic heuristic by design: input text, output score,
// replaceable by a trained classifier without changing the contract.
type Scorer struct {
	keywords  []string
	maxWeight float64
	threshold float64
	log       *slog.Logger
}

// NewScorer creates a scorer over the domain keyword dictionary.
func NewScorer(config model.PipelineConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}

	keywords := make([]string, 0, len(config.Keywords))
	for _, keyword := range config.Keywords {
		keywords = append(keywords, strings.ToLower(keyword))
	}

	return &Scorer{
		keywords:  keywords,
		maxWeight: config.MaxKeywordWeight,
		threshold: config.RelevanceThreshold,
		log:       logger,
	}
}

// Score counts case-insensitive keyword matches in the text, normalized
// against the dictionary size. Each matched keyword contributes at most
// maxWeight, which bounds score inflation from keyword-stuffed titles.
func (s *Scorer) Score(text string) float64 {
	if len(s.keywords) == 0 {
		return 0
	}

	lowered := strings.ToLower(text)
	perKeyword := 1.0 / float64(len(s.keywords))
	if s.maxWeight > 0 && perKeyword > s.maxWeight {
		perKeyword = s.maxWeight
	}

	var score float64
	for _, keyword := range s.keywords {
		if strings.Contains(lowered, keyword) {
			score += perKeyword
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// Filter returns the subset of articles scoring above the threshold,
// with the relevance score set on every kept article. Articles at or
// below the cutoff are discarded and not forwarded further.
func (s *Scorer) Filter(articles []*model.Article) []*model.Article {
	var kept []*model.Article
	for _, article := range articles {
		score := s.Score(article.Title)
		if score <= s.threshold {
			continue
		}

		article.RelevanceScore = score
		kept = append(kept, article)
	}

	s.log.Info("Filtered articles",
		slog.Int("in", len(articles)),
		slog.Int("kept", len(kept)),
	)

	return kept
}
