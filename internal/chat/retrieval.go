package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dealerchat/internal/domain"
	"dealerchat/internal/llm"
	"dealerchat/internal/metrics"
)

// SearchIndex is the slice of the search service the expander needs.
type SearchIndex interface {
	HybridSearch(ctx context.Context, queryText string, vector []float64, k, top int) ([]domain.EvidenceChunk, error)
	FilterSearch(ctx context.Context, filter string) ([]domain.EvidenceChunk, error)
}

// Expander turns a free-text query into an ordered, deduplicated evidence
// set: the hybrid search matches in rank order, followed by each match's
// neighboring chunks from the same source document.
type Expander struct {
	embed  llm.Embedder
	index  SearchIndex
	k      int
	top    int
	window int
	log    zerolog.Logger
}

// NewExpander creates an expander.
func NewExpander(embed llm.Embedder, index SearchIndex, k, top, window int, log zerolog.Logger) *Expander {
	return &Expander{
		embed:  embed,
		index:  index,
		k:      k,
		top:    top,
		window: window,
		log:    log.With().Str("component", "retrieval").Logger(),
	}
}

// Expand retrieves evidence for the query. An embedding failure fails the
// whole expansion; a failed neighbor query only skips that anchor's
// expansion.
func (e *Expander) Expand(ctx context.Context, query string) ([]domain.EvidenceChunk, error) {
	start := time.Now()

	vector, err := e.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	anchors, err := e.index.HybridSearch(ctx, query, vector, e.k, e.top)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	seen := make(map[string]bool, len(anchors))
	result := make([]domain.EvidenceChunk, 0, len(anchors)*(2*e.window+1))
	for _, chunk := range anchors {
		if seen[chunk.ID] {
			continue
		}
		seen[chunk.ID] = true
		result = append(result, chunk)
	}

	for _, anchor := range anchors {
		neighbors, err := e.index.FilterSearch(ctx, neighborFilter(anchor, e.window))
		if err != nil {
			metrics.NeighborQueryFailures.Inc()
			e.log.Warn().Err(err).Str("chunk_id", anchor.ID).Msg("neighbor expansion skipped")
			continue
		}
		for _, n := range neighbors {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			result = append(result, n)
		}
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.ChunksRetrieved.Observe(float64(len(result)))
	return result, nil
}

// neighborFilter selects all chunks of the anchor's parent document whose
// index lies within the window around the anchor.
func neighborFilter(anchor domain.EvidenceChunk, window int) string {
	parent := strings.ReplaceAll(anchor.ParentID, "'", "''")
	return fmt.Sprintf("parent_id eq '%s' and chunk_index ge %d and chunk_index le %d",
		parent, anchor.ChunkIndex-window, anchor.ChunkIndex+window)
}

// FormatEvidence serializes an evidence set into the structured text block
// embedded in the grounding prompt, one record per chunk.
func FormatEvidence(chunks []domain.EvidenceChunk) string {
	if len(chunks) == 0 {
		return "(no matching sources)"
	}
	records := make([]string, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, fmt.Sprintf("Source: %s (page %d, chunk %d)\n%s",
			c.FileName, c.PageNumber, c.ChunkIndex, c.Text))
	}
	return strings.Join(records, "\n\n")
}
