// Package search is a minimal REST client to the document search index. It
// issues hybrid (lexical + vector) queries and exact filter queries over an
// index of evidence chunks.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealerchat/internal/domain"
)

const apiVersion = "2024-07-01"

// chunkFields is the fixed projection selected by every query.
const chunkFields = "id,parent_id,chunk_index,chunk,file_name,page_number"

// vectorField is the index field holding chunk embeddings.
const vectorField = "text_vector"

// Client queries one search index.
type Client struct {
	endpoint   string
	apiKey     string
	index      string
	httpClient *http.Client
}

// Config configures the search client.
type Config struct {
	Endpoint string
	APIKey   string
	Index    string
	Timeout  time.Duration
}

// NewClient creates a search client for one index.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		index:      cfg.Index,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type vectorQuery struct {
	Kind       string    `json:"kind"`
	Vector     []float64 `json:"vector"`
	K          int       `json:"k"`
	Fields     string    `json:"fields"`
	Exhaustive bool      `json:"exhaustive"`
}

type searchRequest struct {
	Search        string        `json:"search,omitempty"`
	Filter        string        `json:"filter,omitempty"`
	Select        string        `json:"select"`
	Top           int           `json:"top,omitempty"`
	Count         bool          `json:"count,omitempty"`
	VectorQueries []vectorQuery `json:"vectorQueries,omitempty"`
}

type searchResponse struct {
	Value []domain.EvidenceChunk `json:"value"`
}

// HybridSearch runs one query combining lexical ranking on the query text
// with an exhaustive k-nearest-neighbor search over the embedding field.
func (c *Client) HybridSearch(ctx context.Context, queryText string, vector []float64, k, top int) ([]domain.EvidenceChunk, error) {
	req := searchRequest{
		Search: queryText,
		Select: chunkFields,
		Top:    top,
		Count:  true,
		VectorQueries: []vectorQuery{{
			Kind:       "vector",
			Vector:     vector,
			K:          k,
			Fields:     vectorField,
			Exhaustive: true,
		}},
	}
	return c.search(ctx, req)
}

// FilterSearch returns all chunks matching an exact filter expression.
func (c *Client) FilterSearch(ctx context.Context, filter string) ([]domain.EvidenceChunk, error) {
	return c.search(ctx, searchRequest{
		Filter: filter,
		Select: chunkFields,
	})
}

func (c *Client) search(ctx context.Context, body searchRequest) ([]domain.EvidenceChunk, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search api error (%d): %s", resp.StatusCode, string(payload))
	}

	var out searchResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out.Value, nil
}
