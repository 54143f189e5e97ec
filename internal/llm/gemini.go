package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"asistente-rag/internal/models"
)

// GeminiClient generates text through the Gemini REST API.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini generation client.
func NewGeminiClient(baseURL, apiKey, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GeminiFactory returns a Factory bound to a base URL, for rebuilding the
// client when the configuration changes.
func GeminiFactory(baseURL string) Factory {
	return func(apiKey, model string) Client {
		return NewGeminiClient(baseURL, apiKey, model)
	}
}

// Model returns the model name this client generates with.
func (c *GeminiClient) Model() string { return c.model }

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends a single-turn prompt and returns the model's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var reqBody generateRequest
	reqBody.Contents = make([]struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}, 1)
	reqBody.Contents[0].Parts = append(reqBody.Contents[0].Parts, struct {
		Text string `json:"text"`
	}{Text: prompt})

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &models.ProviderError{Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.ProviderError{Op: "generate", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		auth := resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden ||
			strings.Contains(string(body), "API key")
		return "", &models.ProviderError{
			Op:   "generate",
			Auth: auth,
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", &models.ProviderError{Op: "generate", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", &models.ProviderError{Op: "generate", Err: fmt.Errorf("no candidates in response")}
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
