package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"STRINGS_SYNC_REPO_ROOT", "STRINGS_SYNC_WET_RUN", "STRINGS_SYNC_DEV_LANGUAGE",
		"STRINGS_SYNC_EXCLUDE", "WORKER_COUNT", "DATABASE_URL", "NEO4J_URI", "STRINGS_SYNC_CACHE_REFERENCES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.False(t, cfg.WetRun)
	assert.Equal(t, "en", cfg.DevelopmentLanguage)
	assert.Equal(t, "Localizable", cfg.SourceTable)
	assert.Equal(t, []string{"env/", "venv/", ".git/"}, cfg.ExcludeDirs)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.CacheReferences)
	assert.Empty(t, cfg.Neo4jURI)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STRINGS_SYNC_WET_RUN", "true")
	t.Setenv("STRINGS_SYNC_EXCLUDE", " Pods/, ,Test/ ")
	t.Setenv("WORKER_COUNT", "not a number")
	t.Setenv("STRINGS_SYNC_DEV_LANGUAGE", "de")

	cfg := Load()

	assert.True(t, cfg.WetRun)
	assert.Equal(t, []string{"Pods/", "Test/"}, cfg.ExcludeDirs)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, "de", cfg.DevelopmentLanguage)
}
