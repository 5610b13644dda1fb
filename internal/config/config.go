package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	RepoRoot            string
	WetRun              bool
	TempDir             string
	DevelopmentLanguage string
	SourceTable         string
	ExcludeDirs         []string
	SourceExtensions    []string
	WorkerCount         int
	KeyOrderDiff        bool
	DatabaseURL         string
	CacheReferences     bool
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		RepoRoot:            getEnv("STRINGS_SYNC_REPO_ROOT", ""),
		WetRun:              getEnvBool("STRINGS_SYNC_WET_RUN", false),
		TempDir:             getEnv("STRINGS_SYNC_TEMP_DIR", os.TempDir()),
		DevelopmentLanguage: getEnv("STRINGS_SYNC_DEV_LANGUAGE", "en"),
		SourceTable:         getEnv("STRINGS_SYNC_SOURCE_TABLE", "Localizable"),
		ExcludeDirs:         getEnvList("STRINGS_SYNC_EXCLUDE", []string{"env/", "venv/", ".git/"}),
		SourceExtensions:    getEnvList("STRINGS_SYNC_SOURCE_EXTENSIONS", []string{".m", ".c", ".cp", ".mm", ".swift"}),
		WorkerCount:         getEnvInt("WORKER_COUNT", 4),
		KeyOrderDiff:        getEnvBool("STRINGS_SYNC_KEY_ORDER_DIFF", false),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CacheReferences:     getEnvBool("STRINGS_SYNC_CACHE_REFERENCES", true),
		Neo4jURI:            getEnv("NEO4J_URI", ""),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList reads a comma separated list.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
