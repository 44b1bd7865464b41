// Package tavily is a web-search provider backed by the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// DefaultEndpoint is the public Tavily search endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

// maxErrorBody caps how much of an error response is echoed into the error.
const maxErrorBody = 512

// Config holds the search provider settings.
type Config struct {
	APIKey   string
	Endpoint string
	// Timeout bounds a single HTTP round-trip. Zero means no client-side bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client searches the web through Tavily.
type Client struct {
	hc       *http.Client
	endpoint string
	apiKey   string
	logger   *zap.Logger
}

// New creates a Tavily client.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		hc:       &http.Client{Timeout: cfg.Timeout},
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		logger:   logger,
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs one query and returns the provider's ranked hits.
// Every failure is wrapped with domain.ErrSearchProvider.
func (c *Client) Search(ctx context.Context, query, depth string, maxResults int) ([]domain.Snippet, error) {
	body, err := json.Marshal(searchRequest{Query: query, SearchDepth: depth, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %v: %w", err, domain.ErrSearchProvider)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %v: %w", err, domain.ErrSearchProvider)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %v: %w", err, domain.ErrSearchProvider)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily status %d: %s: %w",
			resp.StatusCode, errorMessage(data), domain.ErrSearchProvider)
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, domain.ErrSearchProvider)
	}

	out := make([]domain.Snippet, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, domain.Snippet{Title: r.Title, Content: r.Content, Source: r.URL})
	}

	c.logger.Debug("Tavily search completed",
		zap.String("depth", depth),
		zap.Int("max_results", maxResults),
		zap.Int("results", len(out)),
	)
	return out, nil
}

// errorPaths are the places Tavily and its proxies put an error message.
var errorPaths = []string{"detail.error", "detail", "error", "message"}

// errorMessage extracts the provider message from an error body, or a capped raw body.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range errorPaths {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
