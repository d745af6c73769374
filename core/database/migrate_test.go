package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/campusbot/core/config"
)

func TestCountApplied(t *testing.T) {
	files := []string{"0001_conversation_states.up.sql", "0002_scratch_index.up.sql", "0003_x.up.sql"}
	assert.Equal(t, 2, countApplied(files, 0, 2))
	assert.Equal(t, 1, countApplied(files, 2, 3))
	assert.Equal(t, 0, countApplied(files, 3, 3))
}

func TestListMigrationFilesSkipsDown(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, listMigrationFiles(dir))
}

func TestMigrateURLEscapesCredentials(t *testing.T) {
	cfg := coreconfig.PostgresConfig{User: "bot", Password: "p@ss/word", Host: "db", Port: "5432", Name: "campus", SSLMode: "disable"}
	assert.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/campus?sslmode=disable", MigrateURL(cfg))
	assert.Contains(t, DSN(cfg), "dbname=campus")
}

func TestShippedMigrations(t *testing.T) {
	assert.Equal(t, []string{"0001_conversation_states.up.sql"}, listMigrationFiles(filepath.Join("..", "..", "migrations")))
}
