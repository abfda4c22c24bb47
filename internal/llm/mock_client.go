package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockClient is a deterministic stand-in for the completion and embedding
// endpoints, for local development without credentials.
type MockClient struct {
	Dim int
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{Dim: 8}
}

var (
	_ CompletionClient = (*MockClient)(nil)
	_ Embedder         = (*MockClient)(nil)
)

// Complete returns a canned reply derived from the last message.
func (m *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("empty message list")
	}
	last := req.Messages[len(req.Messages)-1]

	content := "Hello! I'm the showroom assistant. How can I help you today?"
	switch {
	case strings.Contains(last.Content, "Summarize the conversation"):
		content = "Summary: the customer asked about available vehicles and pricing."
	case last.Role == "tool":
		content = "Based on our inventory: " + firstLine(last.Content)
	case strings.Contains(last.Content, "sources:"):
		content = "According to the listed sources, here is what I found."
	}

	return &Completion{
		Content: content,
		Usage: &Usage{
			PromptTokens:     len(req.Messages) * 8,
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(req.Messages)*8 + len(content)/4,
		},
	}, nil
}

// Embed returns a fixed-dimension vector derived from the text hash.
func (m *MockClient) Embed(ctx context.Context, text string) ([]float64, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float64, m.Dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float64(int64(seed>>16)%1000) / 1000.0
	}
	return v, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
