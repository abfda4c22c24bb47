// Package tokens estimates the token cost of a message list under a
// model-specific tokenization scheme.
package tokens

import (
	"unicode"

	"dealerchat/internal/domain"
)

const (
	// perMessageOverhead is charged for every message in the list.
	perMessageOverhead = 4
	// perReplyOverhead is charged once for the whole list.
	perReplyOverhead = 2
)

// Tokenizer counts the tokens of a single string. Implementations must be
// deterministic; the estimator uses the same instance for every field of one
// estimate so comparisons against a threshold are stable.
type Tokenizer interface {
	Count(text string) int
}

// Estimator computes token estimates for message lists.
type Estimator struct {
	tok Tokenizer
}

// NewEstimator creates an estimator backed by the given tokenizer. A nil
// tokenizer selects the default heuristic tokenizer.
func NewEstimator(tok Tokenizer) *Estimator {
	if tok == nil {
		tok = HeuristicTokenizer{}
	}
	return &Estimator{tok: tok}
}

// Estimate returns 4 per message, plus the tokenized length of every
// string-valued field, plus 2 for the reply. An empty list costs only the
// reply overhead.
func (e *Estimator) Estimate(messages []domain.Message) int {
	n := 0
	for _, m := range messages {
		n += perMessageOverhead
		n += e.tok.Count(string(m.Role))
		n += e.tok.Count(m.Content)
		if m.ToolCallID != "" {
			n += e.tok.Count(m.ToolCallID)
		}
		if m.ToolName != "" {
			n += e.tok.Count(m.ToolName)
		}
	}
	return n + perReplyOverhead
}

// HeuristicTokenizer approximates a BPE tokenizer by counting word runs and
// individual punctuation marks. It overcounts slightly on long words, which
// errs on the safe side for budget checks.
type HeuristicTokenizer struct{}

func (HeuristicTokenizer) Count(text string) int {
	n := 0
	wordLen := 0
	flush := func() {
		if wordLen > 0 {
			// long words split into roughly 4-rune pieces
			n += (wordLen + 3) / 4
		}
		wordLen = 0
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			wordLen++
		default:
			flush()
			n++
		}
	}
	flush()
	return n
}
