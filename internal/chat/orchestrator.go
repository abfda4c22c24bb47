// Package chat implements the conversation core: token estimation, the
// sliding context window, retrieval expansion and the per-turn orchestration
// that ties them to the completion endpoint and the message store.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dealerchat/internal/domain"
	"dealerchat/internal/llm"
	"dealerchat/internal/metrics"
	"dealerchat/internal/store"
	"dealerchat/internal/tokens"
	"dealerchat/policy"
)

// GroundingMode selects how retrieved evidence reaches the model.
type GroundingMode string

const (
	// ModeAlwaysRAG retrieves on every user turn and grounds the prompt.
	ModeAlwaysRAG GroundingMode = "rag"
	// ModeTools offers the model a search tool and lets it decide.
	ModeTools GroundingMode = "tools"
)

const hybridSearchTool = "hybrid_search"

// Config holds the orchestrator tunables.
type Config struct {
	MaxTokens    int
	Temperature  float64
	Mode         GroundingMode
	SystemPrompt string
	Window       WindowConfig
}

// Orchestrator runs one full request/response cycle per user turn. Each turn
// is processed start to finish by one goroutine; concurrent turns share only
// the store.
type Orchestrator struct {
	store    store.Store
	llm      llm.CompletionClient
	expander *Expander
	window   *WindowManager
	policy   *policy.Engine
	cfg      Config
	log      zerolog.Logger
}

// NewOrchestrator wires the conversation core together. The window manager
// is built here because it summarizes through the orchestrator's own turn
// path.
func NewOrchestrator(st store.Store, completion llm.CompletionClient, expander *Expander, policyEngine *policy.Engine, cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAlwaysRAG
	}
	o := &Orchestrator{
		store:    st,
		llm:      completion,
		expander: expander,
		policy:   policyEngine,
		cfg:      cfg,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
	o.window = NewWindowManager(cfg.Window, tokens.NewEstimator(nil), o, log)
	return o
}

// SendMessage processes one user turn: compress history if needed, ground,
// complete, persist. The returned history contains the bare user query and
// the reply, never the grounded prompt.
func (o *Orchestrator) SendMessage(ctx context.Context, userID, sessionID, query string) (string, []domain.Message, error) {
	history, err := o.loadHistory(ctx, userID, sessionID)
	if err != nil {
		return "", nil, err
	}

	history, err = o.window.Ensure(ctx, userID, sessionID, history)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(string(o.cfg.Mode), "error").Inc()
		return "", nil, err
	}

	var reply string
	switch o.cfg.Mode {
	case ModeTools:
		reply, history, err = o.toolTurn(ctx, userID, sessionID, history, query)
	default:
		reply, history, err = o.ragTurn(ctx, userID, sessionID, history, query)
	}
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(string(o.cfg.Mode), "error").Inc()
		return "", nil, err
	}
	metrics.TurnsTotal.WithLabelValues(string(o.cfg.Mode), "ok").Inc()
	return reply, history, nil
}

// ragTurn grounds every user query with retrieved evidence. The grounded
// content is built as a separate message for the one completion call; the
// persisted and returned message carries the original query.
func (o *Orchestrator) ragTurn(ctx context.Context, userID, sessionID string, history []domain.Message, query string) (string, []domain.Message, error) {
	// persisted before any completion call so a crash never loses the input
	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleUser, query); err != nil {
		return "", nil, err
	}

	evidence, err := o.expander.Expand(ctx, query)
	if err != nil {
		return "", nil, err
	}

	callMessages := append(cloneMessages(history), domain.Message{
		Role:    domain.RoleUser,
		Content: groundedPrompt(query, FormatEvidence(evidence)),
	})
	comp, err := o.complete(ctx, llm.FromDomain(callMessages), nil)
	if err != nil {
		return "", nil, err
	}

	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleAssistant, comp.Content); err != nil {
		return "", nil, err
	}

	history = append(history,
		domain.Message{Role: domain.RoleUser, Content: query},
		domain.Message{Role: domain.RoleAssistant, Content: comp.Content},
	)
	return comp.Content, history, nil
}

// toolTurn offers the model the search tool and performs at most one
// dispatch round before obtaining the final reply.
func (o *Orchestrator) toolTurn(ctx context.Context, userID, sessionID string, history []domain.Message, query string) (string, []domain.Message, error) {
	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleUser, query); err != nil {
		return "", nil, err
	}

	wire := append(llm.FromDomain(history), llm.ChatMessage{Role: string(domain.RoleUser), Content: query})
	comp, err := o.complete(ctx, wire, o.toolDefinitions())
	if err != nil {
		return "", nil, err
	}

	if len(comp.ToolCalls) > 0 {
		wire = append(wire, llm.ChatMessage{
			Role:      string(domain.RoleAssistant),
			Content:   comp.Content,
			ToolCalls: comp.ToolCalls,
		})
		for _, call := range comp.ToolCalls {
			result, err := o.dispatchTool(ctx, userID, call)
			if err != nil {
				return "", nil, err
			}
			wire = append(wire, llm.ChatMessage{
				Role:       string(domain.RoleTool),
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
		// second call without tools: exactly one dispatch round
		comp, err = o.complete(ctx, wire, nil)
		if err != nil {
			return "", nil, err
		}
	}

	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleAssistant, comp.Content); err != nil {
		return "", nil, err
	}

	history = append(history,
		domain.Message{Role: domain.RoleUser, Content: query},
		domain.Message{Role: domain.RoleAssistant, Content: comp.Content},
	)
	return comp.Content, history, nil
}

// dispatchTool executes one model-requested tool call after consulting the
// policy engine. Unknown or blocked tools produce an explanatory result so
// the dispatch round still reaches a final completion.
func (o *Orchestrator) dispatchTool(ctx context.Context, userID string, call llm.ToolCall) (string, error) {
	name := call.Function.Name
	if name != hybridSearchTool {
		metrics.ToolDispatches.WithLabelValues(name, "unknown").Inc()
		return fmt.Sprintf("tool %q is not available", name), nil
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("invalid %s arguments: %w", name, err)
	}

	decision, err := o.policy.Evaluate(ctx, policy.Input{ToolName: name, Query: args.Query, UserID: userID})
	if err != nil {
		return "", err
	}
	metrics.ToolDispatches.WithLabelValues(name, decision).Inc()
	if decision != policy.DecisionAllow {
		o.log.Warn().Str("tool", name).Str("decision", decision).Msg("tool dispatch blocked")
		return fmt.Sprintf("tool %q is not available", name), nil
	}

	evidence, err := o.expander.Expand(ctx, args.Query)
	if err != nil {
		return "", err
	}
	return FormatEvidence(evidence), nil
}

func (o *Orchestrator) toolDefinitions() []llm.Tool {
	return []llm.Tool{{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        hybridSearchTool,
			Description: "Search the dealership knowledge base for vehicles and documents relevant to a query. Use it whenever the customer asks about inventory, specifications or prices; skip it for greetings and small talk.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	}}
}

// Summarize runs the summary instruction through the normal turn path with
// grounding disabled, so the model sees the full prior context. The summary
// exchange is persisted like any other turn.
func (o *Orchestrator) Summarize(ctx context.Context, userID, sessionID string, history []domain.Message) (string, error) {
	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleUser, summaryPrompt); err != nil {
		return "", err
	}

	callMessages := append(cloneMessages(history), domain.Message{
		Role:    domain.RoleUser,
		Content: summaryPrompt,
	})
	comp, err := o.complete(ctx, llm.FromDomain(callMessages), nil)
	if err != nil {
		return "", err
	}

	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleAssistant, comp.Content); err != nil {
		return "", err
	}
	return comp.Content, nil
}

// CreateSession creates a session and runs a grounding-off greeting turn so
// every session has an assistant message on record.
func (o *Orchestrator) CreateSession(ctx context.Context, userID, title string) (string, []domain.Message, error) {
	sessionID, err := o.store.AddSession(ctx, userID, title)
	if err != nil {
		return "", nil, err
	}
	messages, err := o.greet(ctx, userID, sessionID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, messages, nil
}

// ClearChat deletes the session's messages and re-greets.
func (o *Orchestrator) ClearChat(ctx context.Context, userID, sessionID string) ([]domain.Message, error) {
	if err := o.store.ClearSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return o.greet(ctx, userID, sessionID)
}

// DeleteSession removes the session and its messages.
func (o *Orchestrator) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return o.store.DeleteSession(ctx, userID, sessionID)
}

// ListMessages returns the persisted history of a session.
func (o *Orchestrator) ListMessages(ctx context.Context, userID, sessionID string) ([]domain.StoredMessage, error) {
	return o.store.GetMessages(ctx, userID, sessionID)
}

// ListSessions returns the user's sessions, newest first.
func (o *Orchestrator) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return o.store.GetSessions(ctx, userID)
}

// greet persists the system prompt and one assistant greeting.
func (o *Orchestrator) greet(ctx context.Context, userID, sessionID string) ([]domain.Message, error) {
	system := domain.Message{Role: domain.RoleSystem, Content: o.cfg.SystemPrompt}
	if err := o.store.AddMessage(ctx, userID, sessionID, system.Role, system.Content); err != nil {
		return nil, err
	}

	comp, err := o.complete(ctx, llm.FromDomain([]domain.Message{system}), nil)
	if err != nil {
		return nil, err
	}
	if err := o.store.AddMessage(ctx, userID, sessionID, domain.RoleAssistant, comp.Content); err != nil {
		return nil, err
	}

	return []domain.Message{
		system,
		{Role: domain.RoleAssistant, Content: comp.Content},
	}, nil
}

func (o *Orchestrator) complete(ctx context.Context, messages []llm.ChatMessage, tools []llm.Tool) (*llm.Completion, error) {
	start := time.Now()
	comp, err := o.llm.Complete(ctx, &llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		Tools:       tools,
	})
	metrics.CompletionDuration.Observe(time.Since(start).Seconds())
	return comp, err
}

// loadHistory reads the persisted session history as conversation messages.
func (o *Orchestrator) loadHistory(ctx context.Context, userID, sessionID string) ([]domain.Message, error) {
	stored, err := o.store.GetMessages(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, domain.Message{Role: m.Role, Content: m.Content})
	}
	return messages, nil
}

func cloneMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out
}
