package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"dealerchat/internal/domain"
)

type fakeEmbedder struct {
	vector []float64
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeIndex struct {
	anchors     []domain.EvidenceChunk
	hybridErr   error
	neighbors   map[string][]domain.EvidenceChunk // keyed by filter expression
	neighborErr map[string]error
	filters     []string
}

func (f *fakeIndex) HybridSearch(ctx context.Context, queryText string, vector []float64, k, top int) ([]domain.EvidenceChunk, error) {
	if f.hybridErr != nil {
		return nil, f.hybridErr
	}
	return f.anchors, nil
}

func (f *fakeIndex) FilterSearch(ctx context.Context, filter string) ([]domain.EvidenceChunk, error) {
	f.filters = append(f.filters, filter)
	if err, ok := f.neighborErr[filter]; ok {
		return nil, err
	}
	return f.neighbors[filter], nil
}

func chunk(id, parent string, index int) domain.EvidenceChunk {
	return domain.EvidenceChunk{
		ID:         id,
		ParentID:   parent,
		ChunkIndex: index,
		Text:       "text of " + id,
		FileName:   "catalog.pdf",
		PageNumber: 3,
	}
}

func newTestExpander(embed *fakeEmbedder, index *fakeIndex) *Expander {
	return NewExpander(embed, index, 5, 5, 1, zerolog.Nop())
}

func TestExpandDeduplicatesOverlappingWindows(t *testing.T) {
	c1, c2, c3, c4 := chunk("c1", "doc1", 1), chunk("c2", "doc1", 2), chunk("c3", "doc1", 3), chunk("c4", "doc1", 4)
	index := &fakeIndex{
		anchors: []domain.EvidenceChunk{c2, c3},
		neighbors: map[string][]domain.EvidenceChunk{
			neighborFilter(c2, 1): {c1, c2, c3},
			neighborFilter(c3, 1): {c2, c3, c4},
		},
	}
	exp := newTestExpander(&fakeEmbedder{vector: []float64{0.1}}, index)

	result, err := exp.Expand(context.Background(), "overlap")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	seen := make(map[string]int)
	for _, c := range result {
		seen[c.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("chunk %s appears %d times", id, n)
		}
	}
	if len(result) != 4 {
		t.Fatalf("expected 4 unique chunks, got %d", len(result))
	}
	// anchors keep their search rank, neighbors follow
	if result[0].ID != "c2" || result[1].ID != "c3" {
		t.Fatalf("anchor order not preserved: %s, %s", result[0].ID, result[1].ID)
	}
	if result[2].ID != "c1" || result[3].ID != "c4" {
		t.Fatalf("unexpected neighbor order: %s, %s", result[2].ID, result[3].ID)
	}
}

func TestExpandEmbedFailureIsFatal(t *testing.T) {
	exp := newTestExpander(&fakeEmbedder{err: errors.New("embed down")}, &fakeIndex{})
	if _, err := exp.Expand(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpandHybridFailureIsFatal(t *testing.T) {
	exp := newTestExpander(&fakeEmbedder{vector: []float64{0.1}}, &fakeIndex{hybridErr: errors.New("search down")})
	if _, err := exp.Expand(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpandNeighborFailureIsPartial(t *testing.T) {
	a1, a2 := chunk("a1", "doc1", 1), chunk("a2", "doc2", 5)
	n2 := chunk("n2", "doc2", 4)
	index := &fakeIndex{
		anchors: []domain.EvidenceChunk{a1, a2},
		neighbors: map[string][]domain.EvidenceChunk{
			neighborFilter(a2, 1): {n2, a2},
		},
		neighborErr: map[string]error{
			neighborFilter(a1, 1): errors.New("throttled"),
		},
	}
	exp := newTestExpander(&fakeEmbedder{vector: []float64{0.1}}, index)

	result, err := exp.Expand(context.Background(), "q")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	ids := make([]string, 0, len(result))
	for _, c := range result {
		ids = append(ids, c.ID)
	}
	want := []string{"a1", "a2", "n2"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestNeighborFilterExpression(t *testing.T) {
	got := neighborFilter(chunk("c9", "doc'9", 7), 1)
	want := "parent_id eq 'doc''9' and chunk_index ge 6 and chunk_index le 8"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatEvidence(t *testing.T) {
	out := FormatEvidence([]domain.EvidenceChunk{chunk("c1", "doc1", 2)})
	if !strings.Contains(out, "catalog.pdf") || !strings.Contains(out, "page 3") ||
		!strings.Contains(out, "chunk 2") || !strings.Contains(out, "text of c1") {
		t.Fatalf("unexpected serialization: %q", out)
	}

	if FormatEvidence(nil) != "(no matching sources)" {
		t.Fatalf("unexpected empty serialization")
	}
}
