// Package core routes user utterances between the document-grounded
// retrieval path and the general conversational path, and owns the
// ingestion pipeline that feeds the vector index.
package core

import (
	"context"
	"log/slog"
	"sync"

	"asistente-rag/internal/config"
	"asistente-rag/internal/database"
	"asistente-rag/internal/embedding"
	"asistente-rag/internal/llm"
	"asistente-rag/internal/models"
	"asistente-rag/internal/processor"
)

// ActionDispatcher is consulted before the AI path; when an utterance maps
// to a local action it short-circuits the chat. Executing actions is outside
// the core; the default dispatcher handles nothing.
type ActionDispatcher interface {
	Dispatch(utterance string) (handled bool, response string)
}

// Core is the assistant's single entry point. It owns references to the
// generation client, vector store, chunker and configuration; everything is
// injected at construction, no package-level state.
type Core struct {
	store      database.VectorStore
	chunker    *processor.Chunker
	agent      *Agent
	dispatcher ActionDispatcher
	rotator    embedding.KeyRotator
	logger     *slog.Logger

	mu      sync.RWMutex // guards client and cfg during config updates
	client  llm.Client
	factory llm.Factory
	cfg     *config.Config
}

// Option customizes a Core.
type Option func(*Core)

// WithAgent enables the tool-augmented general answerer.
func WithAgent(agent *Agent) Option {
	return func(c *Core) { c.agent = agent }
}

// WithActionDispatcher installs the local-action collaborator.
func WithActionDispatcher(d ActionDispatcher) Option {
	return func(c *Core) { c.dispatcher = d }
}

// WithKeyRotation re-binds the embedding provider's credential when a
// config update commits a new API key, so ingestion and retrieval stop
// embedding with a revoked key.
func WithKeyRotation(r embedding.KeyRotator) Option {
	return func(c *Core) { c.rotator = r }
}

// New wires the orchestrator. The factory rebuilds the generation client
// when UpdateConfig commits a new credential pair.
func New(cfg *config.Config, client llm.Client, factory llm.Factory, store database.VectorStore, chunker *processor.Chunker, opts ...Option) *Core {
	c := &Core{
		store:   store,
		chunker: chunker,
		client:  client,
		factory: factory,
		cfg:     cfg,
		logger:  slog.Default().With("component", "core"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generator returns the current generation client. Config updates swap it
// atomically; a racing chat sees either the old or the new client.
func (c *Core) generator() llm.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Chat classifies the query's intent and dispatches to the matching
// answerer. It never returns an error: every failure degrades to a
// user-facing message string.
func (c *Core) Chat(ctx context.Context, query string) string {
	if c.dispatcher != nil {
		if handled, response := c.dispatcher.Dispatch(query); handled {
			return response
		}
	}

	client := c.generator()
	intent := c.classify(ctx, client, query)

	if intent == models.IntentDocument && c.store.Count() > 0 {
		c.logger.Info("answering from documents", "intent", intent)
		return c.answerFromDocuments(ctx, client, query)
	}

	c.logger.Info("answering from general knowledge", "intent", intent, "agent", c.agent != nil)
	return c.answerGeneral(ctx, client, query)
}

// AssistantName returns the configured display name.
func (c *Core) AssistantName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.AssistantName
}

// Model returns the current generation model name.
func (c *Core) Model() string {
	return c.generator().Model()
}

// Theme returns the configured UI theme.
func (c *Core) Theme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Theme
}

// HasAPIKey reports whether a generation credential is configured.
func (c *Core) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.APIKey != ""
}

// DocumentCount exposes the index size for the status endpoint.
func (c *Core) DocumentCount() int {
	return c.store.Count()
}
