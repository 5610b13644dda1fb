package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"strings-sync/internal/extract"
	"strings-sync/internal/filewalker"
	"strings-sync/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS strings_sync_references (
	hash       TEXT PRIMARY KEY,
	group_name TEXT NOT NULL,
	reference  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// ReferenceCache provides in-memory + PostgreSQL-backed caching for extracted
// reference texts, keyed by a fingerprint of the extraction inputs. Without a
// pool it only caches in memory.
type ReferenceCache struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]string // fingerprint → reference text
}

// NewReferenceCache creates a cache, backed by PostgreSQL when pool is set.
func NewReferenceCache(pool *pgxpool.Pool) *ReferenceCache {
	return &ReferenceCache{
		pool:   pool,
		memory: make(map[string]string),
	}
}

// EnsureSchema creates the cache table.
func (c *ReferenceCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	return nil
}

// Get retrieves a cached reference. Returns empty string and false if not found.
func (c *ReferenceCache) Get(ctx context.Context, fingerprint string) (string, bool) {
	c.mu.RLock()
	if v, ok := c.memory[fingerprint]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var reference string
	err := c.pool.QueryRow(ctx, "SELECT reference FROM strings_sync_references WHERE hash = $1", fingerprint).Scan(&reference)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Err(err).Msg("Reference cache lookup failed")
		}
		return "", false
	}

	c.mu.Lock()
	c.memory[fingerprint] = reference
	c.mu.Unlock()

	return reference, true
}

// Set stores a reference in memory and, when backed, in PostgreSQL.
func (c *ReferenceCache) Set(ctx context.Context, fingerprint, groupName, reference string) error {
	c.mu.Lock()
	c.memory[fingerprint] = reference
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO strings_sync_references (hash, group_name, reference)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO UPDATE SET reference = EXCLUDED.reference, created_at = now()
	`, fingerprint, groupName, reference)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InputsFunc lists the files an extraction of g reads.
type InputsFunc func(g filewalker.Group) []string

// Extractor reuses the reference of a group whose extraction inputs are
// byte-identical to a previous extraction.
type Extractor struct {
	next   extract.Extractor
	cache  *ReferenceCache
	inputs InputsFunc
}

// NewExtractor wraps next with cache.
func NewExtractor(next extract.Extractor, cache *ReferenceCache, inputs InputsFunc) *Extractor {
	return &Extractor{next: next, cache: cache, inputs: inputs}
}

func (e *Extractor) Extract(ctx context.Context, g filewalker.Group) (string, error) {
	fp, err := Fingerprint(g, e.inputs(g))
	if err != nil {
		log.Debug().Err(err).Str("group", g.Name()).Msg("Cannot fingerprint extraction inputs, extracting")
		return e.next.Extract(ctx, g)
	}

	if reference, ok := e.cache.Get(ctx, fp); ok {
		log.Debug().Str("group", g.Name()).Msg("Reusing cached reference")
		return reference, nil
	}

	reference, err := e.next.Extract(ctx, g)
	if err != nil {
		return "", err
	}
	if err := e.cache.Set(ctx, fp, g.Name(), reference); err != nil {
		log.Warn().Err(err).Str("group", g.Name()).Msg("Failed to cache reference")
	}
	return reference, nil
}

// Fingerprint hashes the group identity and the path and content of every
// input file, in order.
func Fingerprint(g filewalker.Group, inputs []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00", g.Kind, g.Name())
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read extraction input: %w", err)
		}
		fmt.Fprintf(&b, "%s\x00%d\x00", path, len(data))
		b.Write(data)
	}
	return textutil.Hash(b.String()), nil
}
