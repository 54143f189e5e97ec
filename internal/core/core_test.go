package core

import (
	"context"
	"strings"
	"sync"

	"asistente-rag/internal/config"
	"asistente-rag/internal/database"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/models"
	"asistente-rag/internal/processor"
)

// fakeClient scripts generation responses. Each call pops the next entry
// from the queue; respond takes precedence when set.
type fakeClient struct {
	mu      sync.Mutex
	queue   []string
	respond func(prompt string) (string, error)
	err     error
	prompts []string
}

func (f *fakeClient) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.respond != nil {
		return f.respond(prompt)
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.queue) == 0 {
		return "", nil
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next, nil
}

func (f *fakeClient) Model() string { return "fake-model" }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeClient) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeStore is a scriptable VectorStore for routing tests.
type fakeStore struct {
	count     int
	results   []models.SearchResult
	queryErr  error
	upsertErr error
	upserted  [][]models.Chunk
	cleared   bool
}

func (f *fakeStore) Upsert(_ context.Context, chunks []models.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunks)
	f.count += len(chunks)
	return nil
}

func (f *fakeStore) Query(_ context.Context, _ string, _ int) ([]models.SearchResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.results, nil
}

func (f *fakeStore) Count() int { return f.count }

func (f *fakeStore) Clear(_ context.Context) error {
	f.count = 0
	f.cleared = true
	return nil
}

var _ database.VectorStore = (*fakeStore)(nil)

func testConfig() *config.Config {
	return &config.Config{
		AssistantName: "Asistente IA",
		Theme:         "dark",
		Model:         "fake-model",
		APIKey:        "test-key",
		ContextLimit:  4,
		Chunker:       config.ChunkerConfig{Size: 1000, Overlap: 200},
	}
}

func newTestCore(client llm.Client, store database.VectorStore, opts ...Option) *Core {
	factory := func(apiKey, model string) llm.Client { return client }
	return New(testConfig(), client, factory, store, processor.NewChunker(1000, 200), opts...)
}

// resultsFromTexts builds retrieval results with descending scores.
func resultsFromTexts(texts ...string) []models.SearchResult {
	results := make([]models.SearchResult, len(texts))
	for i, t := range texts {
		results[i] = models.SearchResult{
			Chunk: models.Chunk{Text: t, SourceID: "doc.txt", SequenceIndex: i},
			Score: 1 - float64(i)*0.1,
		}
	}
	return results
}

// promptContains reports whether any recorded prompt contains s.
func (f *fakeClient) promptContains(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, s) {
			return true
		}
	}
	return false
}
