package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/model"
)

func TestEntitiesNewEntitiesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEntitiesDBHandler", func(t *testing.T) {
		entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")
		require.NotNil(t, entitiesDbHandler, "Expected NewEntitiesDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewEntitiesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEntitiesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EntitiesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestEntitiesUpsert(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Upsert creates a new entity", func(t *testing.T) {
		entity := &model.Entity{
			Name:     "Samsung Electronics",
			Type:     "ORG",
			Metadata: model.Metadata{"confidence": 0.95},
		}

		inserted, err := entitiesDbHandler.UpsertEntity(nil, entity)
		assert.NoError(t, err, "Expected Upsert to not return an error")
		assert.True(t, inserted)
		assert.NotZero(t, entity.ID, "Expected inserted entity to have an ID")
		assert.WithinDuration(t, entity.CreatedAt, time.Now(), 2*time.Second)

		// Cleanup
		entitiesDbHandler.DeleteEntity(entity.ID)
	})

	t.Run("Upsert by name is idempotent", func(t *testing.T) {
		first := &model.Entity{Name: "SK Hynix", Type: "ORG"}
		inserted, err := entitiesDbHandler.UpsertEntity(nil, first)
		require.NoError(t, err)
		require.True(t, inserted)

		second := &model.Entity{Name: "SK Hynix", Type: "ORG"}
		inserted, err = entitiesDbHandler.UpsertEntity(nil, second)
		assert.NoError(t, err)
		assert.False(t, inserted, "Expected second upsert to reference the existing row")
		assert.Equal(t, first.ID, second.ID, "Expected the same entity row for the same name")

		// Cleanup
		entitiesDbHandler.DeleteEntity(first.ID)
	})

	t.Run("Name is normalized before matching", func(t *testing.T) {
		first := &model.Entity{Name: "Bank of Korea", Type: "ORG"}
		_, err := entitiesDbHandler.UpsertEntity(nil, first)
		require.NoError(t, err)

		second := &model.Entity{Name: "  Bank   of Korea ", Type: "ORG"}
		inserted, err := entitiesDbHandler.UpsertEntity(nil, second)
		assert.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, first.ID, second.ID)

		// Cleanup
		entitiesDbHandler.DeleteEntity(first.ID)
	})

	t.Run("Existing type survives an upsert with empty type", func(t *testing.T) {
		entity := &model.Entity{Name: "KOSPI", Type: "watchlist"}
		_, err := entitiesDbHandler.UpsertEntity(nil, entity)
		require.NoError(t, err)

		unknown := &model.Entity{Name: "KOSPI"}
		_, err = entitiesDbHandler.UpsertEntity(nil, unknown)
		require.NoError(t, err)
		assert.Equal(t, "watchlist", unknown.Type)

		// Cleanup
		entitiesDbHandler.DeleteEntity(entity.ID)
	})
}

func TestEntitiesSelect(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entity := &model.Entity{Name: "Federal Reserve", Type: "ORG"}
	_, err = entitiesDbHandler.UpsertEntity(nil, entity)
	require.NoError(t, err)

	t.Run("SelectEntity by ID", func(t *testing.T) {
		stored, err := entitiesDbHandler.SelectEntity(entity.ID)
		assert.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, entity.Name, stored.Name)
	})

	t.Run("SelectEntityByName", func(t *testing.T) {
		stored, err := entitiesDbHandler.SelectEntityByName("  Federal   Reserve ")
		assert.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, entity.ID, stored.ID)
	})

	t.Run("SelectEntitiesByType", func(t *testing.T) {
		entities, err := entitiesDbHandler.SelectEntitiesByType("ORG", 10)
		assert.NoError(t, err)
		assert.NotEmpty(t, entities)
	})

	// Cleanup
	entitiesDbHandler.DeleteEntity(entity.ID)
}
