package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"newsgraph/model"
)

func testConfig() model.PipelineConfig {
	return model.PipelineConfig{
		Keywords:           []string{"stock", "market", "economy", "kospi"},
		RelevanceThreshold: 0.1,
		MaxKeywordWeight:   0.2,
	}
}

func TestScore(t *testing.T) {
	scorer := NewScorer(testConfig(), nil)

	t.Run("Deterministic for identical input", func(t *testing.T) {
		title := "Stock market rallies as economy recovers"
		assert.Equal(t, scorer.Score(title), scorer.Score(title))
	})

	t.Run("Case insensitive matching", func(t *testing.T) {
		assert.Equal(t, scorer.Score("KOSPI hits record"), scorer.Score("kospi hits record"))
	})

	t.Run("No matches scores zero", func(t *testing.T) {
		assert.Zero(t, scorer.Score("Local festival draws crowds"))
	})

	t.Run("Each keyword contributes at most the weight cap", func(t *testing.T) {
		// 4 keywords, so the uncapped per-keyword weight would be 0.25.
		score := scorer.Score("stock market economy kospi")
		assert.InDelta(t, 0.8, score, 1e-9)
	})

	t.Run("Score never exceeds one", func(t *testing.T) {
		config := testConfig()
		config.MaxKeywordWeight = 1.0
		scorer := NewScorer(config, nil)
		score := scorer.Score("stock market economy kospi")
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("Empty dictionary scores zero", func(t *testing.T) {
		scorer := NewScorer(model.PipelineConfig{}, nil)
		assert.Zero(t, scorer.Score("stock market"))
	})
}

func TestFilter(t *testing.T) {
	scorer := NewScorer(testConfig(), nil)

	t.Run("Keeps only articles above the threshold", func(t *testing.T) {
		articles := []*model.Article{
			{ID: "a", Title: "Stock market rallies on strong earnings"},
			{ID: "b", Title: "Local festival draws record crowds"},
			{ID: "c", Title: "KOSPI gains as economy improves"},
		}

		kept := scorer.Filter(articles)
		assert.Len(t, kept, 2)
		assert.Equal(t, "a", kept[0].ID)
		assert.Equal(t, "c", kept[1].ID)
	})

	t.Run("Score at the threshold is excluded", func(t *testing.T) {
		config := testConfig()
		config.RelevanceThreshold = 0.2
		scorer := NewScorer(config, nil)

		// Exactly one keyword match contributes exactly 0.2.
		kept := scorer.Filter([]*model.Article{{ID: "a", Title: "stock news"}})
		assert.Empty(t, kept)
	})

	t.Run("Kept articles carry their relevance score", func(t *testing.T) {
		kept := scorer.Filter([]*model.Article{{ID: "a", Title: "stock market update"}})
		assert.Len(t, kept, 1)
		assert.InDelta(t, 0.4, kept[0].RelevanceScore, 1e-9)
	})
}
