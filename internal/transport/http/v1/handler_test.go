package v1

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"dealerchat/internal/chat"
	"dealerchat/internal/domain"
	"dealerchat/internal/llm"
	"dealerchat/internal/store"
	"dealerchat/policy"
)

// staticIndex serves a fixed evidence set to every query.
type staticIndex struct {
	chunks []domain.EvidenceChunk
}

func (s *staticIndex) HybridSearch(ctx context.Context, queryText string, vector []float64, k, top int) ([]domain.EvidenceChunk, error) {
	return s.chunks, nil
}

func (s *staticIndex) FilterSearch(ctx context.Context, filter string) ([]domain.EvidenceChunk, error) {
	return nil, nil
}

func newTestHandler(t *testing.T) (*Handler, store.Store) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mock := llm.NewMockClient()
	index := &staticIndex{chunks: []domain.EvidenceChunk{{
		ID:         "c1",
		ParentID:   "doc1",
		ChunkIndex: 0,
		Text:       "The sedan lists at $25,000.",
		FileName:   "pricing.pdf",
		PageNumber: 1,
	}}}
	expander := chat.NewExpander(mock, index, 5, 5, 1, zerolog.Nop())

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	orch := chat.NewOrchestrator(st, mock, expander, engine, chat.Config{
		MaxTokens:   512,
		Temperature: 0.75,
		Mode:        chat.ModeAlwaysRAG,
		Window: chat.WindowConfig{
			Ceiling:         100000,
			Threshold:       0.8,
			RetainHead:      2,
			RetainTail:      7,
			RetainCap:       10,
			ShortRetainTail: 2,
		},
	}, zerolog.Nop())

	return NewHandler(orch, st, zerolog.Nop()), st
}
