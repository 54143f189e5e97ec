package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"asistente-rag/internal/embedding"
	"asistente-rag/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrModelMismatch means the index was built with a different embedding
// model than the one configured. The operator must clear and re-ingest.
var ErrModelMismatch = errors.New("index was built with a different embedding model; clear and re-ingest")

// PostgresStore is a pgvector-backed VectorStore. Writes are serialized
// behind a mutex; reads run concurrently. The entry count is cached so the
// intent classifier can check emptiness per message without a table scan.
type PostgresStore struct {
	pool     *pgxpool.Pool
	embedder embedding.Embedder

	mu    sync.Mutex // serializes Upsert and Clear
	count atomic.Int64
}

// NewPostgresStore connects to the database, creates the schema and verifies
// the index fingerprint against the configured embedder.
func NewPostgresStore(ctx context.Context, connStr string, embedder embedding.Embedder) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, embedder: embedder}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initialize sets up tables, validates the model fingerprint and loads the
// cached entry count.
func (s *PostgresStore) initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS document_chunks (
            id SERIAL PRIMARY KEY,
            source_id TEXT NOT NULL,
            sequence_index INTEGER NOT NULL,
            char_start INTEGER NOT NULL,
            char_end INTEGER NOT NULL,
            content TEXT NOT NULL,
            embedding vector NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create document_chunks table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS index_meta (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            embedding_model TEXT NOT NULL,
            dimension INTEGER NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create index_meta table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS document_chunks_source_idx ON document_chunks (source_id)
    `)
	if err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}

	var model string
	var dim int
	err = s.pool.QueryRow(ctx, `SELECT embedding_model, dimension FROM index_meta WHERE id = 1`).Scan(&model, &dim)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Empty index; the fingerprint is written on first upsert.
	case err != nil:
		return fmt.Errorf("failed to read index fingerprint: %w", err)
	case model != s.embedder.ModelName():
		return fmt.Errorf("%w (index: %s, configured: %s)", ErrModelMismatch, model, s.embedder.ModelName())
	}

	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	s.count.Store(count)
	return nil
}

// Upsert embeds the chunks and persists them in a single transaction. Either
// every chunk of the batch is committed or none is.
func (s *PostgresStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ensureFingerprint(ctx, tx, len(vectors[0])); err != nil {
		return err
	}

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, `
            INSERT INTO document_chunks (source_id, sequence_index, char_start, char_end, content, embedding)
            VALUES ($1, $2, $3, $4, $5, $6::vector)
        `,
			chunk.SourceID,
			chunk.SequenceIndex,
			chunk.CharStart,
			chunk.CharEnd,
			chunk.Text,
			vectorLiteral(vectors[i]))
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	s.count.Add(int64(len(chunks)))
	return nil
}

// ensureFingerprint writes the model fingerprint on first ingest and rejects
// vectors whose dimensionality disagrees with it afterwards.
func (s *PostgresStore) ensureFingerprint(ctx context.Context, tx pgx.Tx, dim int) error {
	var model string
	var stored int
	err := tx.QueryRow(ctx, `SELECT embedding_model, dimension FROM index_meta WHERE id = 1`).Scan(&model, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err = tx.Exec(ctx, `INSERT INTO index_meta (id, embedding_model, dimension) VALUES (1, $1, $2)`,
			s.embedder.ModelName(), dim)
		if err != nil {
			return fmt.Errorf("failed to write index fingerprint: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index fingerprint: %w", err)
	}
	if model != s.embedder.ModelName() {
		return fmt.Errorf("%w (index: %s, configured: %s)", ErrModelMismatch, model, s.embedder.ModelName())
	}
	if stored != dim {
		return fmt.Errorf("embedding dimension mismatch: index has %d, got %d", stored, dim)
	}
	return nil
}

// Query embeds text and returns the k nearest chunks by cosine similarity,
// descending. Fewer than k entries means all of them are returned.
func (s *PostgresStore) Query(ctx context.Context, text string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
        SELECT source_id, sequence_index, char_start, char_end, content,
               1 - (embedding <=> $1::vector) AS score
        FROM document_chunks
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `, vectorLiteral(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(
			&r.Chunk.SourceID,
			&r.Chunk.SequenceIndex,
			&r.Chunk.CharStart,
			&r.Chunk.CharEnd,
			&r.Chunk.Text,
			&r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

// Count returns the cached number of indexed entries.
func (s *PostgresStore) Count() int {
	return int(s.count.Load())
}

// Clear removes every entry and the fingerprint, so the next ingest may bind
// a new embedding model.
func (s *PostgresStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks`); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("failed to clear index fingerprint: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	s.count.Store(0)
	return nil
}

// Pool exposes the underlying pool so the history store can share it.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// vectorLiteral renders a vector in pgvector's text input format.
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
