// Package llm provides an abstraction for the completion and embedding
// endpoints.
package llm

import (
	"context"

	"dealerchat/internal/domain"
)

// CompletionClient sends chat completion requests.
type CompletionClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CompletionRequest is one non-streaming completion call.
type CompletionRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	Tools       []Tool
}

// Completion is the completion outcome: either final content, or one or more
// tool calls the model wants executed.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *Usage
}

// FromDomain converts conversation messages to wire messages.
func FromDomain(messages []domain.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.ToolName,
		})
	}
	return out
}

// Ensure Client implements both interfaces.
var (
	_ CompletionClient = (*Client)(nil)
	_ Embedder         = (*Client)(nil)
)
