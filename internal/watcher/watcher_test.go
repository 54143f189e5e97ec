package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asistente-rag/internal/config"
	"asistente-rag/internal/core"
	"asistente-rag/internal/database"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/processor"
)

type noopClient struct{}

func (noopClient) Generate(context.Context, string) (string, error) { return "", nil }
func (noopClient) Model() string                                    { return "noop" }

type countingEmbedder struct{}

func (countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

func (countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (countingEmbedder) ModelName() string { return "counting" }

func TestIngestible(t *testing.T) {
	assert.True(t, ingestible("/docs/manual.pdf"))
	assert.True(t, ingestible("/docs/NOTAS.TXT"))
	assert.False(t, ingestible("/docs/imagen.png"))
	assert.False(t, ingestible("/docs/.hidden"))
}

func TestRunMissingDirectory(t *testing.T) {
	w := New(newCore(), "/no/existe")

	err := w.Run(context.Background())
	require.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w := New(newCore(), t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func newCore() *core.Core {
	cfg := &config.Config{AssistantName: "Test", ContextLimit: 4}
	var client llm.Client = noopClient{}
	factory := func(string, string) llm.Client { return client }
	store := database.NewMemoryStore(countingEmbedder{})
	return core.New(cfg, client, factory, store, processor.NewChunker(1000, 200))
}
