// Package llm provides generation clients for the assistant.
package llm

import "context"

// Client sends a single prompt to a generation model and returns its text.
// Failures surface as *models.ProviderError; auth rejections are marked so
// callers can distinguish a bad API key from a transport fault.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name this client generates with.
	Model() string
}

// Factory builds a generation client for a candidate credential pair. The
// config-update path uses it to validate a new key before committing it.
type Factory func(apiKey, model string) Client
