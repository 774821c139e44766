// Package rag implements the retrieval half of the answer pipeline.
//
// A corpus document is split into passages ("chunks") on blank-line
// boundaries, every chunk across the corpus is held in an in-memory index,
// and a lexical scoring engine ranks chunks against a user query. The top
// ranked chunks are surfaced to the caller as citations that ground the
// generated answer.
//
// Components:
//   - SplitDocument: pure chunking function (chunker.go)
//   - Index: chunk collection with atomic snapshot swap on rebuild (index.go)
//   - Scorer: lexical term-statistics scoring (score.go)
//   - Retriever: top-K search over the index (retriever.go)
//   - RunEval: fixed retrieval regression suite (eval.go)
//
// Scoring deliberately avoids an inverted index or embeddings: the corpus is
// small enough that scoring every chunk per query is cheap, and the term
// co-occurrence bonus is a sufficient proxy for phrase relevance.
package rag
