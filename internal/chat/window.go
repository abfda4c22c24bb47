package chat

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dealerchat/internal/domain"
	"dealerchat/internal/metrics"
	"dealerchat/internal/tokens"
)

// minCompressible is the smallest history worth compressing: the system
// prompt plus one full exchange. Anything shorter is returned as-is, which
// also guarantees compression terminates.
const minCompressible = 3

// summaryPrompt is the synthetic instruction appended for the summary turn.
const summaryPrompt = "Summarize the conversation so far in a concise manner, retaining important details and context. " +
	"The summary should be brief and to the point, capturing the essence of the discussion without unnecessary elaboration. " +
	"The summary will be used to maintain context in future interactions, so ensure it is clear and informative."

// Summarizer produces a conversation summary through the normal assistant
// turn path, with grounding disabled. The orchestrator implements it.
type Summarizer interface {
	Summarize(ctx context.Context, userID, sessionID string, history []domain.Message) (string, error)
}

// WindowConfig holds the context window policy constants.
type WindowConfig struct {
	// Ceiling is the token budget for one completion call.
	Ceiling int
	// Threshold is the fraction of the ceiling at which compression kicks in.
	Threshold float64
	// RetainHead messages from the start of the history (system prompt plus
	// the first exchange) always survive compression.
	RetainHead int
	// RetainTail most recent messages are kept when the history is longer
	// than RetainCap; otherwise only ShortRetainTail are.
	RetainTail      int
	RetainCap       int
	ShortRetainTail int
}

// WindowManager keeps a message list under the token ceiling by summarizing
// and truncating the history when the budget is nearly exhausted.
type WindowManager struct {
	cfg WindowConfig
	est *tokens.Estimator
	sum Summarizer
	log zerolog.Logger
}

// NewWindowManager creates a window manager.
func NewWindowManager(cfg WindowConfig, est *tokens.Estimator, sum Summarizer, log zerolog.Logger) *WindowManager {
	return &WindowManager{
		cfg: cfg,
		est: est,
		sum: sum,
		log: log.With().Str("component", "window").Logger(),
	}
}

// Ensure returns the history unchanged while it fits the budget. Once the
// estimate reaches Threshold*Ceiling it obtains a summary of the whole
// conversation, appends it as an assistant message and truncates: the first
// RetainHead messages plus the most recent tail. A summarization failure
// propagates; returning the oversized list would only fail downstream.
func (m *WindowManager) Ensure(ctx context.Context, userID, sessionID string, messages []domain.Message) ([]domain.Message, error) {
	if len(messages) <= minCompressible {
		return messages, nil
	}
	estimate := m.est.Estimate(messages)
	if float64(estimate) < float64(m.cfg.Ceiling)*m.cfg.Threshold {
		return messages, nil
	}

	m.log.Info().
		Int("estimate", estimate).
		Int("ceiling", m.cfg.Ceiling).
		Int("messages", len(messages)).
		Msg("compressing conversation history")
	metrics.Compressions.Inc()

	summary, err := m.sum.Summarize(ctx, userID, sessionID, messages)
	if err != nil {
		return nil, fmt.Errorf("history summarization failed: %w", err)
	}

	compressed := make([]domain.Message, 0, len(messages)+1)
	compressed = append(compressed, messages...)
	compressed = append(compressed, domain.Message{Role: domain.RoleAssistant, Content: summary})

	tail := m.cfg.ShortRetainTail
	if len(compressed) > m.cfg.RetainCap {
		tail = m.cfg.RetainTail
	}
	head := m.cfg.RetainHead
	tailStart := len(compressed) - tail
	if tailStart < head {
		tailStart = head
	}

	result := make([]domain.Message, 0, head+tail)
	result = append(result, compressed[:head]...)
	result = append(result, compressed[tailStart:]...)

	if after := m.est.Estimate(result); after >= m.cfg.Ceiling {
		// a single oversized message cannot be compressed away
		return result, fmt.Errorf("%w: %d tokens after compression", domain.ErrContextOverflow, after)
	}
	return result, nil
}
