package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	articlesDbHandler, err := NewArticlesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Switch to ivfflat", func(t *testing.T) {
		err := articlesDbHandler.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err)
	})

	t.Run("Switch back to hnsw", func(t *testing.T) {
		err := articlesDbHandler.ChangeIndexType(ctx, "hnsw", map[string]interface{}{"m": 8, "ef_construction": 32})
		assert.NoError(t, err)
	})

	t.Run("Unsupported index type", func(t *testing.T) {
		err := articlesDbHandler.ChangeIndexType(ctx, "btree", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}
