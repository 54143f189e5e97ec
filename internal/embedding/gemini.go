package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"asistente-rag/internal/models"
)

// GeminiEmbedder generates embeddings through the Gemini REST API.
type GeminiEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int

	mu     sync.RWMutex // guards apiKey during rotation
	apiKey string
}

// NewGeminiEmbedder creates a Gemini embedding client.
func NewGeminiEmbedder(baseURL, apiKey, model string) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
}

// ModelName identifies the embedding model.
func (e *GeminiEmbedder) ModelName() string { return e.model }

// RotateKey replaces the API credential used by subsequent requests.
func (e *GeminiEmbedder) RotateKey(apiKey string) {
	e.mu.Lock()
	e.apiKey = apiKey
	e.mu.Unlock()
}

func (e *GeminiEmbedder) key() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.apiKey
}

type geminiContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func newGeminiContent(text string) geminiContent {
	var c geminiContent
	c.Parts = append(c.Parts, struct {
		Text string `json:"text"`
	}{Text: text})
	return c
}

type embedContentRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// Embed generates an embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", e.baseURL, e.model, e.key())
	reqBody := embedContentRequest{
		Model:   "models/" + e.model,
		Content: newGeminiContent(text),
	}

	var resp embedContentResponse
	if err := e.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, &models.ProviderError{Op: "embed", Err: fmt.Errorf("empty embedding in response")}
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one call,
// order-preserving.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.key())

	reqBody := batchEmbedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, t := range texts {
		reqBody.Requests[i] = embedContentRequest{
			Model:   "models/" + e.model,
			Content: newGeminiContent(t),
		}
	}

	var resp batchEmbedResponse
	if err := e.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &models.ProviderError{
			Op:  "embed_batch",
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	vectors := make([][]float32, len(texts))
	for i, em := range resp.Embeddings {
		vectors[i] = em.Values
	}
	return vectors, nil
}

// post sends a JSON request with retries on transport errors and 5xx/429.
func (e *GeminiEmbedder) post(ctx context.Context, url string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &models.ProviderError{Op: "embed", Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return json.Unmarshal(body, out)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &models.ProviderError{
				Op:   "embed",
				Auth: true,
				Err:  fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
			}
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
			continue
		default:
			return &models.ProviderError{
				Op:   "embed",
				Auth: strings.Contains(string(body), "API key"),
				Err:  fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
			}
		}
	}
	return &models.ProviderError{
		Op:  "embed",
		Err: fmt.Errorf("request failed after %d retries: %w", e.maxRetries, lastErr),
	}
}
