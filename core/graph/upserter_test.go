package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/model"
)

func testConfig() model.PipelineConfig {
	return model.PipelineConfig{
		SimilarityThreshold: 0.7,
	}
}

func testArticle(url, title, category string) *model.Article {
	return &model.Article{
		ID:       model.DeriveArticleID(url),
		Title:    title,
		URL:      url,
		Category: category,
	}
}

func TestUpsertCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("First run creates, second run updates", func(t *testing.T) {
		store := NewMemoryStore()
		upserter := NewUpserter(store, testConfig(), nil)

		articles := []*model.Article{
			testArticle("https://news.example.com/1", "One", ""),
			testArticle("https://news.example.com/2", "Two", ""),
		}

		result, err := upserter.Upsert(ctx, articles, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.NewArticles)
		assert.Zero(t, result.UpdatedArticles)

		result, err = upserter.Upsert(ctx, articles, nil)
		require.NoError(t, err)
		assert.Zero(t, result.NewArticles)
		assert.Equal(t, 2, result.UpdatedArticles)

		storedArticles, _, _ := store.Counts()
		assert.Equal(t, 2, storedArticles)
	})

	t.Run("Re-ingestion preserves creation time and enriched fields", func(t *testing.T) {
		store := NewMemoryStore()
		upserter := NewUpserter(store, testConfig(), nil)

		enriched := testArticle("https://news.example.com/1", "One", "")
		enriched.Body = "full article body"
		enriched.Embedding = []float32{1, 0, 0}

		_, err := upserter.Upsert(ctx, []*model.Article{enriched}, nil)
		require.NoError(t, err)

		stored := store.Article(enriched.ID)
		require.NotNil(t, stored)
		createdAt := stored.CreatedAt
		require.False(t, createdAt.IsZero())

		// A fresh collection of the same URL carries neither body nor
		// embedding nor creation time.
		recollected := testArticle("https://news.example.com/1", "One updated", "")
		_, err = upserter.Upsert(ctx, []*model.Article{recollected}, nil)
		require.NoError(t, err)

		stored = store.Article(enriched.ID)
		require.NotNil(t, stored)
		assert.Equal(t, "One updated", stored.Title)
		assert.Equal(t, createdAt, stored.CreatedAt, "Expected the creation time to survive re-ingestion")
		assert.Equal(t, "full article body", stored.Body, "Expected the stored body to survive an empty update")
		assert.Equal(t, []float32{1, 0, 0}, stored.Embedding, "Expected the stored embedding to survive an empty update")
	})

	t.Run("Entities shared across triples are counted once", func(t *testing.T) {
		store := NewMemoryStore()
		upserter := NewUpserter(store, testConfig(), nil)

		article := testArticle("https://news.example.com/1", "One", "")
		triples := []*model.Triple{
			{Subject: "Samsung Electronics", Relation: model.RelationRise, Object: "SK Hynix", Confidence: 0.9, ArticleID: article.ID},
			{Subject: "Samsung Electronics", Relation: model.RelationImpact, Object: "KOSPI", Confidence: 0.8, ArticleID: article.ID},
		}

		result, err := upserter.Upsert(ctx, []*model.Article{article}, triples)
		require.NoError(t, err)
		assert.Equal(t, 3, result.NewEntities)
		assert.Equal(t, 2, result.NewEdges)
	})
}

func TestUpsertConfidenceNonRegression(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	upserter := NewUpserter(store, testConfig(), nil)

	article := testArticle("https://news.example.com/1", "One", "")
	strong := []*model.Triple{{Subject: "Alpha", Relation: model.RelationRise, Object: "Beta", Confidence: 0.9, ArticleID: article.ID}}
	weak := []*model.Triple{{Subject: "Alpha", Relation: model.RelationRise, Object: "Beta", Confidence: 0.5, ArticleID: article.ID}}

	_, err := upserter.Upsert(ctx, []*model.Article{article}, strong)
	require.NoError(t, err)

	_, err = upserter.Upsert(ctx, []*model.Article{article}, weak)
	require.NoError(t, err)

	alpha := store.Entity("Alpha")
	beta := store.Entity("Beta")
	require.NotNil(t, alpha)
	require.NotNil(t, beta)

	edge := store.Edge(&model.Edge{
		SourceEntityID: &alpha.ID,
		TargetEntityID: &beta.ID,
		EdgeType:       model.EdgeTypeRise,
	})
	require.NotNil(t, edge)
	assert.InDelta(t, 0.9, edge.Weight, 1e-9, "Expected the lower confidence to be ignored")
}

func TestUpsertBatchAtomicity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.FailAfter(2)
	upserter := NewUpserter(store, testConfig(), nil)

	articles := []*model.Article{
		testArticle("https://news.example.com/1", "One", ""),
		testArticle("https://news.example.com/2", "Two", ""),
		testArticle("https://news.example.com/3", "Three", ""),
	}

	_, err := upserter.Upsert(ctx, articles, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailure)

	storedArticles, storedEntities, storedEdges := store.Counts()
	assert.Zero(t, storedArticles, "Expected no partial batch after a failed run")
	assert.Zero(t, storedEntities)
	assert.Zero(t, storedEdges)
}

func TestDerivedEdges(t *testing.T) {
	ctx := context.Background()

	t.Run("Similarity edges for pairs above the threshold", func(t *testing.T) {
		store := NewMemoryStore()
		upserter := NewUpserter(store, testConfig(), nil)

		first := testArticle("https://news.example.com/1", "One", "")
		second := testArticle("https://news.example.com/2", "Two", "")
		third := testArticle("https://news.example.com/3", "Three", "")
		first.Embedding = []float32{1, 0, 0}
		second.Embedding = []float32{1, 0, 0}
		third.Embedding = []float32{0, 1, 0}

		result, err := upserter.Upsert(ctx, []*model.Article{first, second, third}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewEdges)

		source, target := first.ID, second.ID
		if source > target {
			source, target = target, source
		}
		edge := store.Edge(&model.Edge{
			SourceArticleID: &source,
			TargetArticleID: &target,
			EdgeType:        model.EdgeTypeSimilarTo,
		})
		require.NotNil(t, edge)
		assert.InDelta(t, 1.0, edge.Weight, 1e-6)
	})

	t.Run("Similarity edges are stable across input order", func(t *testing.T) {
		first := testArticle("https://news.example.com/1", "One", "")
		second := testArticle("https://news.example.com/2", "Two", "")
		first.Embedding = []float32{1, 0}
		second.Embedding = []float32{1, 0}

		strategy := PairwiseSimilarity(0.7)
		forward, err := strategy(ctx, []*model.Article{first, second})
		require.NoError(t, err)
		reverse, err := strategy(ctx, []*model.Article{second, first})
		require.NoError(t, err)
		assert.Equal(t, forward, reverse)
	})

	t.Run("Articles without embeddings produce no similarity edges", func(t *testing.T) {
		strategy := PairwiseSimilarity(0.0)
		pairs, err := strategy(ctx, []*model.Article{
			testArticle("https://news.example.com/1", "One", ""),
			testArticle("https://news.example.com/2", "Two", ""),
		})
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("Same category edges", func(t *testing.T) {
		store := NewMemoryStore()
		upserter := NewUpserter(store, testConfig(), nil)

		articles := []*model.Article{
			testArticle("https://news.example.com/1", "One", "economy"),
			testArticle("https://news.example.com/2", "Two", "economy"),
			testArticle("https://news.example.com/3", "Three", "securities"),
		}

		result, err := upserter.Upsert(ctx, articles, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewEdges, "Expected one edge for the single economy pair")
	})

	t.Run("Watchlist mentions create entities and edges", func(t *testing.T) {
		store := NewMemoryStore()
		config := testConfig()
		config.Watchlist = []string{"KOSPI"}
		upserter := NewUpserter(store, config, nil)

		article := testArticle("https://news.example.com/1", "KOSPI extends winning streak", "")
		result, err := upserter.Upsert(ctx, []*model.Article{article}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewEntities)
		assert.Equal(t, 1, result.NewEdges)

		entity := store.Entity("KOSPI")
		require.NotNil(t, entity)
		assert.Equal(t, "watchlist", entity.Type)

		edge := store.Edge(&model.Edge{
			SourceArticleID: &article.ID,
			TargetEntityID:  &entity.ID,
			EdgeType:        model.EdgeTypeMentions,
		})
		require.NotNil(t, edge)
	})

	t.Run("Watchlist term first seen in a triple still gets its type", func(t *testing.T) {
		store := NewMemoryStore()
		config := testConfig()
		config.Watchlist = []string{"KOSPI"}
		upserter := NewUpserter(store, config, nil)

		article := testArticle("https://news.example.com/1", "KOSPI slides on foreign selling", "")
		triples := []*model.Triple{
			{Subject: "Foreign investors", Relation: model.RelationImpact, Object: "KOSPI", Confidence: 0.9, ArticleID: article.ID},
		}

		_, err := upserter.Upsert(ctx, []*model.Article{article}, triples)
		require.NoError(t, err)

		entity := store.Entity("KOSPI")
		require.NotNil(t, entity)
		assert.Equal(t, "watchlist", entity.Type, "Expected the mention pass to type the entity created by the triple")
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}), "Mismatched dimensions score zero")
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}), "Zero vector scores zero")
}
