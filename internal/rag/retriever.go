package rag

import (
	"log/slog"
	"sort"
)

// Retrieval constants.
const (
	// TopK is the maximum number of chunks surfaced per query.
	TopK = 3

	// scoreThreshold filters out chunks with only incidental term overlap.
	scoreThreshold = 0.1
)

// Retriever answers "given a query, return the best chunks as citations"
// by scoring every chunk in the current index snapshot.
type Retriever struct {
	index  *Index
	scorer *Scorer
	logger *slog.Logger
}

// NewRetriever creates a retriever over the given index and scorer.
func NewRetriever(index *Index, scorer *Scorer, logger *slog.Logger) *Retriever {
	return &Retriever{
		index:  index,
		scorer: scorer,
		logger: logger.With("component", "retriever"),
	}
}

// Search scores every indexed chunk against the query and returns at most
// TopK results with score above the threshold, ordered by descending score.
// Ties keep the original chunk order for determinism. An unbuilt or empty
// index yields an empty result, not an error.
func (r *Retriever) Search(query string) []ScoredChunk {
	chunks, indexed := r.index.Chunks()
	if !indexed || len(chunks) == 0 {
		r.logger.Warn("search against unbuilt index", "query_len", len(query))
		return nil
	}

	var results []ScoredChunk
	for _, c := range chunks {
		score := r.scorer.Score(query, c)
		if score > scoreThreshold {
			results = append(results, ScoredChunk{Chunk: c, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > TopK {
		results = results[:TopK]
	}

	r.logger.Debug("search completed", "query_len", len(query), "results", len(results))
	return results
}

// Citations projects Search results into the public citation shape,
// preserving the full passage text.
func (r *Retriever) Citations(query string) []Citation {
	results := r.Search(query)

	citations := make([]Citation, len(results))
	for i, res := range results {
		citations[i] = Citation{
			Filename:       res.Chunk.Document,
			Content:        res.Chunk.Text,
			ParagraphIndex: res.Chunk.Ordinal,
			Score:          res.Score,
		}
	}
	return citations
}

// Reindex clears and rebuilds the index, returning the resulting indexed flag.
func (r *Retriever) Reindex() bool {
	return r.index.Rebuild()
}

// Status proxies the index status.
func (r *Retriever) Status() IndexStatus {
	return r.index.Status()
}
