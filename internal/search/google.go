// Package search wraps the Google Custom Search JSON API as the assistant's
// optional web tool.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Tool runs a web search and returns a text digest of the results.
type Tool interface {
	Search(ctx context.Context, query string) (string, error)
}

// GoogleClient queries a Google Programmable Search Engine.
type GoogleClient struct {
	apiKey     string
	cseID      string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewGoogleClient creates a search client. Returns nil when either
// credential is missing, which disables the agent path.
func NewGoogleClient(apiKey, cseID string) *GoogleClient {
	if apiKey == "" || cseID == "" {
		return nil
	}
	return &GoogleClient{
		apiKey:     apiKey,
		cseID:      cseID,
		baseURL:    "https://www.googleapis.com/customsearch/v1",
		maxResults: 5,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs the query and flattens the top results into a plain-text
// digest the model can consume as tool output.
func (c *GoogleClient) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", c.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(sr.Items) == 0 {
		return "Sin resultados de búsqueda.", nil
	}

	var sb strings.Builder
	for i, item := range sr.Items {
		fmt.Fprintf(&sb, "%d. %s\n%s\n%s\n\n", i+1, item.Title, item.Snippet, item.Link)
	}
	return strings.TrimSpace(sb.String()), nil
}
