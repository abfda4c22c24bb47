// Package policy evaluates whether a model-requested tool call may run.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by Evaluate.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
		// policies are written in Rego v1 syntax; this OPA release defaults to v0
		rego.SetRegoVersion(ast.RegoV1),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input describes one requested tool dispatch.
type Input struct {
	ToolName string `json:"tool_name"`
	Query    string `json:"query"`
	UserID   string `json:"user_id"`
}

// Evaluate returns the policy decision for a tool dispatch.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// the default policy always defines a decision; an empty result
		// means a custom policy forgot to, treat as blocked
		return DecisionBlock, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionBlock, nil
}

// DefaultPolicy allows the retrieval tool and blocks everything else.
const DefaultPolicy = `
package tool_policy

default decision := "block"

decision := "allow" if {
	input.tool_name == "hybrid_search"
	count(input.query) > 0
}
`
