package persistence

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMigrations_InputValidation(t *testing.T) {
	t.Run("EmptyMigrationsPath", func(t *testing.T) {
		err := RunMigrations(slog.Default(), "postgres://test", "")
		assert.EqualError(t, err, "migrations path cannot be empty")
	})

	t.Run("EmptyDatabaseURL", func(t *testing.T) {
		err := RunMigrations(slog.Default(), "", "./migrations/postgres")
		assert.EqualError(t, err, "database URL cannot be empty")
	})

	t.Run("MissingSourceDirectory", func(t *testing.T) {
		err := RunMigrations(slog.Default(), "postgres://ledger@localhost:5432/ledger?sslmode=disable", "./does-not-exist")
		assert.ErrorContains(t, err, "failed to create migrate instance")
	})
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://./migrations/postgres", sourceURL("./migrations/postgres"))
	assert.Equal(t, "file:///srv/migrations", sourceURL("file:///srv/migrations"))
}
