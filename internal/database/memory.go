package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"asistente-rag/internal/embedding"
	"asistente-rag/internal/models"
)

// MemoryStore is a brute-force in-memory VectorStore. It backs tests and
// the store.type "memory" configuration for running without Postgres; it
// does not survive restarts.
type MemoryStore struct {
	embedder embedding.Embedder

	mu      sync.RWMutex
	model   string
	chunks  []models.Chunk
	vectors [][]float32
}

// NewMemoryStore creates an empty in-memory store bound to the embedder.
func NewMemoryStore(embedder embedding.Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// Upsert embeds the chunks and appends them atomically: an embedding failure
// leaves the store untouched.
func (s *MemoryStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
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

	if s.model == "" {
		s.model = s.embedder.ModelName()
	} else if s.model != s.embedder.ModelName() {
		return fmt.Errorf("%w (index: %s, configured: %s)", ErrModelMismatch, s.model, s.embedder.ModelName())
	}

	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Query returns up to k chunks by descending cosine similarity to text.
func (s *MemoryStore) Query(ctx context.Context, text string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.SearchResult, len(s.chunks))
	for i := range s.chunks {
		results[i] = models.SearchResult{
			Chunk: s.chunks[i],
			Score: cosineSimilarity(vector, s.vectors[i]),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Clear removes all entries and the model binding.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.vectors = nil
	s.model = ""
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
