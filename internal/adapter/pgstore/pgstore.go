// Package pgstore keeps the knowledge index in PostgreSQL using the pgvector
// extension. Similarity is computed by the database with the cosine distance
// operator, so no vectors are held in process memory.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"cultura/internal/adapter/store"
	"cultura/internal/domain"
	"cultura/internal/port"
)

// replaceLockKey is the advisory lock taken by Replace so concurrent builds
// from different processes apply one after another.
const replaceLockKey = 0x63756c74

const ddl = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS culture_chunks (
    ordinal   INTEGER PRIMARY KEY,
    id        TEXT    NOT NULL,
    culture   TEXT    NOT NULL,
    category  TEXT    NOT NULL DEFAULT '',
    text      TEXT    NOT NULL,
    embedding vector  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_culture_chunks_culture
    ON culture_chunks (culture, ordinal);

CREATE TABLE IF NOT EXISTS culture_index_meta (
    id   INTEGER PRIMARY KEY CHECK (id = 1),
    meta JSONB   NOT NULL
);
`

// VectorIndex implements port.VectorIndex on a pgx connection pool.
type VectorIndex struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, registers pgvector types on every connection and
// creates the schema when missing.
func Open(ctx context.Context, dsn string) (*VectorIndex, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}

	// The extension may not exist yet on a fresh database, so registration
	// failures are retried on the next connection after Migrate.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_ = pgxvec.RegisterTypes(ctx, conn)
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: migrate: %w", err)
	}
	// drop connections opened before the extension existed
	pool.Reset()

	return &VectorIndex{pool: pool}, nil
}

// Replace deletes every chunk and inserts items inside one transaction.
func (v *VectorIndex) Replace(ctx context.Context, items []port.VectorItem, meta port.IndexMeta) error {
	meta.SchemaVersion = store.CurrentSchemaVersion
	for _, item := range items {
		if len(item.Vector) != meta.Dimension {
			return fmt.Errorf("chunk %s: %w: expected %d, got %d", item.Chunk.ID, port.ErrDimensionMismatch, meta.Dimension, len(item.Vector))
		}
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, v.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, replaceLockKey); err != nil {
			return fmt.Errorf("pgstore: lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM culture_chunks`); err != nil {
			return fmt.Errorf("pgstore: clear: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			c := item.Chunk
			batch.Queue(
				`INSERT INTO culture_chunks (ordinal, id, culture, category, text, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				c.Ordinal, c.ID, c.Culture, c.Category, c.Text, pgvector.NewVector(item.Vector),
			)
		}
		batch.Queue(
			`INSERT INTO culture_index_meta (id, meta) VALUES (1, $1)
			 ON CONFLICT (id) DO UPDATE SET meta = EXCLUDED.meta`,
			metaData,
		)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("pgstore: insert: %w", err)
		}
		return nil
	})
}

// Search orders chunks of culture by cosine distance to query. Rows with
// equal distance keep ordinal order.
func (v *VectorIndex) Search(ctx context.Context, query []float32, culture string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.pool.Query(ctx, `
		SELECT id, text, culture, category, ordinal,
		       1 - (embedding <=> $1) AS score
		FROM   culture_chunks
		WHERE  culture = $2
		ORDER  BY embedding <=> $1, ordinal
		LIMIT  $3`,
		pgvector.NewVector(query), culture, k,
	)
	if err != nil {
		return nil, fmt.Errorf("pgstore: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ScoredChunk, error) {
		var sc domain.ScoredChunk
		err := row.Scan(&sc.Chunk.ID, &sc.Chunk.Text, &sc.Chunk.Culture, &sc.Chunk.Category, &sc.Chunk.Ordinal, &sc.Score)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: scan rows: %w", err)
	}
	return results, nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.pool.QueryRow(ctx, `SELECT count(*) FROM culture_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgstore: count: %w", err)
	}
	return n, nil
}

func (v *VectorIndex) Meta(ctx context.Context) (port.IndexMeta, error) {
	var (
		meta port.IndexMeta
		data []byte
	)
	err := v.pool.QueryRow(ctx, `SELECT meta FROM culture_index_meta WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return meta, nil
	}
	if err != nil {
		return meta, fmt.Errorf("pgstore: meta: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("pgstore: decode meta: %w", err)
	}
	return meta, nil
}

func (v *VectorIndex) Close() error {
	v.pool.Close()
	return nil
}
