package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"asistente-rag/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings using a local Ollama instance.
type OllamaEmbedder struct {
	client        *api.Client
	model         string
	maxRetries    int
	timeout       time.Duration
	maxConcurrent int
}

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back
// to the OLLAMA_HOST environment variable.
func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaEmbedder{
		client:        client,
		model:         model,
		maxRetries:    3,
		timeout:       time.Second * 30,
		maxConcurrent: 3, // Limit concurrent requests based on hardware
	}, nil
}

// ModelName identifies the embedding model.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Embed generates an embedding for a single text, with retries.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	var err error

	for retries := 0; retries <= e.maxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, &models.ProviderError{Op: "embed", Err: ctx.Err()}
			case <-time.After(time.Duration(retries) * time.Second):
			}
		}

		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}

	return nil, &models.ProviderError{
		Op:  "embed",
		Err: fmt.Errorf("failed to create embedding after %d retries: %w", e.maxRetries, err),
	}
}

// createEmbedding makes a single embedding request.
func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	req := api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts in parallel, bounded by
// a semaphore. The result preserves input order; the first failure aborts the
// whole batch so no partial set is ever returned.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.maxConcurrent)
	vectors := make([][]float32, len(texts))
	errChan := make(chan error, len(texts))

	for i := range texts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			vec, err := e.Embed(ctx, texts[i])
			if err != nil {
				errChan <- fmt.Errorf("failed to embed text %d: %w", i, err)
				return
			}
			vectors[i] = vec
		}(i)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}

	return vectors, nil
}
