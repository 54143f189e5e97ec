package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"asistente-rag/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient generates text through a local Ollama instance.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a new Ollama generation client. An empty host
// falls back to the OLLAMA_HOST environment variable.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaClient{
		client: client,
		model:  model,
	}, nil
}

// OllamaFactory returns a Factory bound to a host. Ollama has no API key;
// the credential argument is ignored.
func OllamaFactory(host string) Factory {
	return func(_, model string) Client {
		c, err := NewOllamaClient(host, model)
		if err != nil {
			return &failedClient{model: model, err: err}
		}
		return c
	}
}

// Model returns the model name this client generates with.
func (c *OllamaClient) Model() string { return c.model }

// Generate sends a single-turn prompt and accumulates the streamed response.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 1024,
		},
	}

	var responseBuilder strings.Builder

	err := c.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", &models.ProviderError{Op: "generate", Err: fmt.Errorf("failed to generate response: %w", err)}
	}

	return responseBuilder.String(), nil
}

// failedClient defers a construction error until first use, so factories
// keep the Client signature.
type failedClient struct {
	model string
	err   error
}

func (c *failedClient) Model() string { return c.model }

func (c *failedClient) Generate(context.Context, string) (string, error) {
	return "", &models.ProviderError{Op: "generate", Err: c.err}
}
