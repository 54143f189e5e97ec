// Package embedding converts text into fixed-dimension vectors via a
// remote model call.
package embedding

import "context"

// Embedder generates vector embeddings for chunks and queries.
// Implementations wrap a remote provider; failures surface as
// *models.ProviderError and must never yield a partial vector.
type Embedder interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one vector per input, order-preserving.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the embedding model, used to fingerprint the
	// vector index so vectors from different models never mix.
	ModelName() string
}

// KeyRotator is implemented by providers whose API credential can be
// replaced at runtime. Rotation changes the key only; the model stays the
// same, so the index fingerprint remains valid.
type KeyRotator interface {
	RotateKey(apiKey string)
}
