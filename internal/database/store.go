// Package database holds the durable vector index and the chat history
// repository.
package database

import (
	"context"

	"asistente-rag/internal/models"
)

// VectorStore is the persistent index of (chunk, vector) pairs. Upsert embeds
// each chunk through the store's embedding provider; a batch is committed
// all-or-nothing so a failed embedding never leaves a partial document behind.
//
// The index is bound to a single embedding model. Implementations record a
// model fingerprint and refuse to operate when the configured embedder does
// not match it; switching models requires Clear plus re-ingest.
type VectorStore interface {
	// Upsert embeds and persists the chunks atomically.
	Upsert(ctx context.Context, chunks []models.Chunk) error

	// Query returns up to k chunks ordered by descending similarity to text.
	Query(ctx context.Context, text string, k int) ([]models.SearchResult, error)

	// Count returns the number of indexed entries. Cached; safe to call on
	// the classification hot path for every message.
	Count() int

	// Clear removes every entry and the model fingerprint, leaving an empty
	// index ready for re-ingest.
	Clear(ctx context.Context) error
}
