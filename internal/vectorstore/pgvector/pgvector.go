// Package pgvector persists records in Postgres with the pgvector
// extension. All rows live in one table; a record belongs to exactly one
// named collection so several documents can share a database without
// cross-contamination.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgvpgx "github.com/pgvector/pgvector-go/pgx"

	"pdfqa/internal/domain"
)

const tableName = "pdfqa_chunks"

// Store is a pgvector-backed vector store scoped to one collection.
type Store struct {
	pool       *pgxpool.Pool
	collection string
	dimension  int
}

// Config contains connection details for the Postgres store.
type Config struct {
	URL        string
	Collection string
}

// New connects to Postgres and verifies the connection. The collection
// name is chosen by the operator; it is never derived from content.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, &domain.StoreError{Op: "connect", Err: errors.New("collection name is required")}
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, &domain.StoreError{Op: "connect", Err: err}
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvpgx.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, &domain.StoreError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.StoreError{Op: "connect", Err: err}
	}
	return &Store{pool: pool, collection: cfg.Collection}, nil
}

// Init creates the extension, table and index if missing, and fails when
// an existing table was declared with a different vector dimensionality.
// Vectors of a different length than the index was built with cannot be
// compared, so a mismatch is a hard error, never a truncation.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.StoreError{Op: "init", Err: errors.New("invalid dimension")}
	}
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return &domain.StoreError{Op: "init", Err: err}
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		collection text NOT NULL,
		id text NOT NULL,
		content text NOT NULL,
		metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
		embedding vector(%d) NOT NULL,
		PRIMARY KEY (collection, id)
	)`, tableName, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return &domain.StoreError{Op: "init", Err: err}
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_collection_idx ON %s (collection)", tableName, tableName)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return &domain.StoreError{Op: "init", Err: err}
	}

	// CREATE TABLE IF NOT EXISTS is a no-op on an existing table, so read
	// back the declared dimensionality and compare.
	var declared int
	err := s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		tableName,
	).Scan(&declared)
	if err != nil {
		return &domain.StoreError{Op: "init", Err: err}
	}
	if declared != dimension {
		return &domain.StoreError{
			Op:  "init",
			Err: fmt.Errorf("table %s holds %d-dimensional vectors, got %d", tableName, declared, dimension),
		}
	}
	s.dimension = dimension
	return nil
}

// Insert writes all records in one batch. It is not idempotent: re-running
// an ingest into the same collection without clearing it first fails on the
// duplicate IDs.
func (s *Store) Insert(ctx context.Context, records []domain.StoredRecord) error {
	if s.dimension == 0 {
		return &domain.StoreError{Op: "insert", Err: errors.New("store not initialized")}
	}
	batch := &pgx.Batch{}
	sql := fmt.Sprintf(
		"INSERT INTO %s (collection, id, content, metadata, embedding) VALUES ($1, $2, $3, $4, $5)",
		tableName,
	)
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return &domain.StoreError{
				Op:  "insert",
				Err: fmt.Errorf("vector dimension %d does not match store dimension %d", len(r.Embedding), s.dimension),
			}
		}
		batch.Queue(sql, s.collection, r.ID, r.Text, r.Metadata, pgv.NewVector(r.Embedding))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	return nil
}

// Nearest returns up to k records of this collection ordered by cosine
// similarity, nearest first. The trailing id in the ORDER BY makes tie
// order deterministic for a fixed store state.
func (s *Store) Nearest(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 10
	}
	sql := fmt.Sprintf(`SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s WHERE collection = $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`, tableName)
	rows, err := s.pool.Query(ctx, sql, pgv.NewVector(vector), s.collection, k)
	if err != nil {
		return nil, &domain.StoreError{Op: "nearest", Err: err}
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.Text, &r.Metadata, &r.Score); err != nil {
			return nil, &domain.StoreError{Op: "nearest", Err: err}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "nearest", Err: err}
	}
	return results, nil
}

// Clear deletes every record of this collection.
func (s *Store) Clear(ctx context.Context) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE collection = $1", tableName)
	if _, err := s.pool.Exec(ctx, sql, s.collection); err != nil {
		return &domain.StoreError{Op: "clear", Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }
