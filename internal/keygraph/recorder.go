// Package keygraph mirrors which .strings files declare which keys into a
// Neo4j graph, so orphaned keys can be reviewed across languages.
package keygraph

import (
	"context"
	"fmt"

	"strings-sync/internal/updater"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Recorder writes (:Group)-[:HAS_FILE]->(:StringsFile)-[:DECLARES]->(:Key).
type Recorder struct {
	driver neo4j.DriverWithContext
}

// NewRecorder creates a recorder on an open driver.
func NewRecorder(driver neo4j.DriverWithContext) *Recorder {
	return &Recorder{driver: driver}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// EnsureSchema creates uniqueness constraints.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (g:Group) REQUIRE g.base IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:StringsFile) REQUIRE f.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (k:Key) REQUIRE (k.group, k.name) IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Debug().Msg("Key graph schema ensured")
	return nil
}

// Record replaces the keys declared by rec.Path with the merged key order.
// Dry runs that would have changed the file are skipped, since the file on
// disk still has its old keys.
func (r *Recorder) Record(ctx context.Context, rec updater.Record) error {
	if !rec.Written && rec.Before != rec.After {
		log.Debug().Str("path", rec.Path).Msg("File not written, key graph left unchanged")
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (g:Group {base: $base})
			SET g.name = $name, g.kind = $kind
			MERGE (f:StringsFile {path: $path})
			MERGE (g)-[:HAS_FILE]->(f)
			WITH f
			OPTIONAL MATCH (f)-[d:DECLARES]->()
			DELETE d
		`, map[string]any{
			"base": rec.Group.Base,
			"name": rec.Group.Name(),
			"kind": string(rec.Group.Kind),
			"path": rec.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert strings file %s: %w", rec.Path, err)
		}

		_, err = tx.Run(ctx, `
			MATCH (f:StringsFile {path: $path})
			UNWIND $keys AS k
			MERGE (key:Key {group: $base, name: k.name})
			MERGE (f)-[d:DECLARES]->(key)
			SET d.position = k.position, d.superfluous = k.superfluous
		`, map[string]any{
			"path": rec.Path,
			"base": rec.Group.Base,
			"keys": declarations(rec),
		})
		if err != nil {
			return nil, fmt.Errorf("declare keys of %s: %w", rec.Path, err)
		}
		return nil, nil
	})
	return err
}

// declarations lists the keys of the merged document as Cypher parameters.
func declarations(rec updater.Record) []map[string]any {
	superfluous := make(map[string]bool, len(rec.Merge.Superfluous))
	for _, k := range rec.Merge.Superfluous {
		superfluous[k] = true
	}

	keys := make([]map[string]any, 0, len(rec.Merge.OrderAfter))
	for i, k := range rec.Merge.OrderAfter {
		keys = append(keys, map[string]any{
			"name":        k,
			"position":    i,
			"superfluous": superfluous[k],
		})
	}
	return keys
}

// Orphan is a key a strings file declares although its group's reference
// no longer does.
type Orphan struct {
	Path string
	Key  string
}

// Orphans lists superfluous keys across all recorded files, optionally
// restricted to one group base file.
func (r *Recorder) Orphans(ctx context.Context, base string) ([]Orphan, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (g:Group)-[:HAS_FILE]->(f:StringsFile)-[d:DECLARES {superfluous: true}]->(k:Key)
		WHERE $base = '' OR g.base = $base
		RETURN f.path AS path, k.name AS key
		ORDER BY path, d.position
	`, map[string]any{"base": base})
	if err != nil {
		return nil, fmt.Errorf("query orphans: %w", err)
	}

	var orphans []Orphan
	for result.Next(ctx) {
		rec := result.Record()
		path, _ := rec.Get("path")
		key, _ := rec.Get("key")
		orphans = append(orphans, Orphan{Path: fmt.Sprint(path), Key: fmt.Sprint(key)})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read orphans: %w", err)
	}
	return orphans, nil
}
