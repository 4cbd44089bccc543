package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Wraps the cause with the operation", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewError("open database", cause)

		assert.EqualError(t, err, "error in open database: connection refused")
		assert.ErrorIs(t, err, cause, "Expected the cause to stay unwrappable")
	})

	t.Run("Preserves wrapped sentinel errors", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		err := NewError("outer", fmt.Errorf("inner: %w", sentinel))
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestNewDatabaseConfiguration(t *testing.T) {
	setEnv := func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("DB_USER", "user")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "newsgraph")
		t.Setenv("DB_SSLMODE", "")
	}

	t.Run("Reads configuration from the environment", func(t *testing.T) {
		setEnv(t)

		config, err := NewDatabaseConfiguration()
		assert.NoError(t, err)
		assert.Equal(t, "localhost", config.Host)
		assert.Equal(t, "5433", config.Port)
		assert.Equal(t, "disable", config.SSLMode, "Expected sslmode to default to disable")
	})

	t.Run("Missing required variables", func(t *testing.T) {
		setEnv(t)
		t.Setenv("DB_HOST", "")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err)
	})

	t.Run("ConnectionString contains all parts", func(t *testing.T) {
		setEnv(t)

		config, err := NewDatabaseConfiguration()
		assert.NoError(t, err)
		assert.Equal(t,
			"host=localhost port=5433 user=user password=secret dbname=newsgraph sslmode=disable",
			config.ConnectionString(),
		)
	})
}
