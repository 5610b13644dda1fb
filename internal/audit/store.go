// Package audit keeps a PostgreSQL history of reconciled documents and the
// modifications applied to them.
package audit

import (
	"context"
	"fmt"
	"time"

	"strings-sync/internal/textutil"
	"strings-sync/internal/updater"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS strings_sync_documents (
	id            BIGSERIAL PRIMARY KEY,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	group_name    TEXT NOT NULL,
	group_kind    TEXT NOT NULL,
	path          TEXT NOT NULL,
	wet_run       BOOLEAN NOT NULL,
	written       BOOLEAN NOT NULL,
	hash_before   TEXT NOT NULL,
	hash_after    TEXT NOT NULL,
	order_changed BOOLEAN NOT NULL,
	superfluous   TEXT[] NOT NULL
);
CREATE INDEX IF NOT EXISTS strings_sync_documents_path_idx ON strings_sync_documents (path, recorded_at DESC);
CREATE TABLE IF NOT EXISTS strings_sync_modifications (
	document_id BIGINT NOT NULL REFERENCES strings_sync_documents (id) ON DELETE CASCADE,
	position    INT NOT NULL,
	key         TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	before      TEXT NOT NULL,
	after       TEXT NOT NULL,
	PRIMARY KEY (document_id, position)
);
`

var modificationColumns = []string{"document_id", "position", "key", "kind", "payload", "before", "after"}

// Store records reconciliations in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the history tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	log.Debug().Msg("Audit schema ensured")
	return nil
}

// Record stores one document outcome and its modifications in a single
// transaction.
func (s *Store) Record(ctx context.Context, rec updater.Record) error {
	superfluous := rec.Merge.Superfluous
	if superfluous == nil {
		superfluous = []string{}
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO strings_sync_documents
				(group_name, group_kind, path, wet_run, written, hash_before, hash_after, order_changed, superfluous)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`,
			rec.Group.Name(),
			string(rec.Group.Kind),
			rec.Path,
			rec.WetRun,
			rec.Written,
			textutil.Hash(rec.Before),
			textutil.Hash(rec.After),
			rec.Merge.OrderChanged(),
			superfluous,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert audit document: %w", err)
		}

		rows := modificationRows(id, rec)
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"strings_sync_modifications"}, modificationColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy audit modifications: %w", err)
		}
		return nil
	})
}

func modificationRows(id int64, rec updater.Record) [][]any {
	rows := make([][]any, 0, len(rec.Merge.Modifications))
	for i, m := range rec.Merge.Modifications {
		rows = append(rows, []any{id, int32(i), m.Key, m.Kind.String(), m.Payload, m.Before, m.After})
	}
	return rows
}

// DocumentRun is one recorded reconciliation of a document.
type DocumentRun struct {
	RecordedAt     time.Time `db:"recorded_at"`
	Path           string    `db:"path"`
	WetRun         bool      `db:"wet_run"`
	Written        bool      `db:"written"`
	OrderChanged   bool      `db:"order_changed"`
	Inserted       int64     `db:"inserted"`
	CommentChanges int64     `db:"comment_changes"`
	Superfluous    []string  `db:"superfluous"`
}

// History returns the latest runs for paths matching pattern (a SQL LIKE
// pattern), newest first.
func (s *Store) History(ctx context.Context, pattern string, limit int) ([]DocumentRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.recorded_at, d.path, d.wet_run, d.written, d.order_changed,
			count(m.*) FILTER (WHERE m.kind = 'insert') AS inserted,
			count(m.*) FILTER (WHERE m.kind = 'comment') AS comment_changes,
			d.superfluous
		FROM strings_sync_documents d
		LEFT JOIN strings_sync_modifications m ON m.document_id = d.id
		WHERE d.path LIKE $1
		GROUP BY d.id
		ORDER BY d.recorded_at DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[DocumentRun])
	if err != nil {
		return nil, fmt.Errorf("scan audit history: %w", err)
	}
	return runs, nil
}
