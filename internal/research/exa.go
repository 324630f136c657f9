package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SearchRequest is one call to the search service. Dates are
// YYYY-MM-DD and empty strings mean unbounded.
type SearchRequest struct {
	Query      string
	StartDate  string
	EndDate    string
	MaxResults int
}

// SearchResult is one ranked document returned by the search service.
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score"`
}

// SearchClient abstracts the search service.
type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}

// ExaClient searches the web through the Exa API.
type ExaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewExaClient creates a search client. An empty API key is allowed:
// searches then degrade to empty result lists with a warning, because
// downstream stages treat "no evidence" as a legitimate outcome.
func NewExaClient(apiKey string, timeout time.Duration) *ExaClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ExaClient{
		apiKey:     apiKey,
		baseURL:    "https://api.exa.ai",
		httpClient: &http.Client{Timeout: timeout},
	}
}

type exaPayload struct {
	Query              string      `json:"query"`
	NumResults         int         `json:"num_results"`
	Type               string      `json:"type"`
	UseAutoprompt      bool        `json:"use_autoprompt"`
	StartPublishedDate string      `json:"start_published_date,omitempty"`
	EndPublishedDate   string      `json:"end_published_date,omitempty"`
	Contents           exaContents `json:"contents"`
}

type exaContents struct {
	Text    bool `json:"text"`
	Summary bool `json:"summary"`
}

type exaResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Text          string  `json:"text"`
		Summary       string  `json:"summary"`
		PublishedDate string  `json:"published_date"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// Search runs a keyword search with optional published-date bounds.
func (c *ExaClient) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if c.apiKey == "" {
		fmt.Println("Warning: EXA_API_KEY not set, returning empty search results")
		return nil, nil
	}

	payload := exaPayload{
		Query:              req.Query,
		NumResults:         req.MaxResults,
		Type:               "keyword",
		StartPublishedDate: req.StartDate,
		EndPublishedDate:   req.EndDate,
		Contents:           exaContents{Text: true, Summary: true},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("search API status %d: %s", resp.StatusCode, snippet)
	}

	var parsed exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		content := r.Text
		if content == "" {
			content = r.Summary
		}
		results = append(results, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}
	return results, nil
}
