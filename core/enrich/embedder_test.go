package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbedder(t *testing.T) {
	// Note: DefaultEmbedder uses hugot which requires downloading models
	// These tests may take longer on first run

	t.Run("Create embedder successfully", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()

		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("Generate embeddings for a batch", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()
		require.NoError(t, err)

		texts := []string{
			"The stock market rallied on strong earnings.",
			"The central bank held interest rates steady.",
		}
		embeddings, err := embedder(texts)

		require.NoError(t, err)
		require.Len(t, embeddings, 2, "Expected one embedding per input text")
		for _, embedding := range embeddings {
			assert.Equal(t, 384, len(embedding), "all-MiniLM-L6-v2 produces 384-dimensional embeddings")
		}
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()
		require.NoError(t, err)

		texts := []string{"Deterministic embedding test"}
		first, err := embedder(texts)
		require.NoError(t, err)
		second, err := embedder(texts)
		require.NoError(t, err)

		assert.Equal(t, first, second, "Expected identical text to yield identical embeddings")
	})

	t.Run("Empty batch yields nothing", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()
		require.NoError(t, err)

		embeddings, err := embedder(nil)
		require.NoError(t, err)
		assert.Empty(t, embeddings)
	})
}
