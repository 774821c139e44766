package rag

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DocumentSource is the slice of the document store the index needs.
// Defined here, by the consumer, so tests can supply an in-memory corpus.
type DocumentSource interface {
	// List returns all document names in a stable (lexicographic) order.
	List() ([]string, error)

	// Read returns one document's raw text.
	Read(name string) (string, error)
}

// snapshot is an immutable view of the fully chunked corpus. Readers always
// see a complete snapshot; rebuilds publish a new one atomically.
type snapshot struct {
	chunks  []Chunk
	indexed bool
}

// Index owns the chunk collection for the whole corpus.
//
// Concurrency: searches read the current snapshot through an atomic pointer
// and never block; Load builds the replacement off to the side and swaps it
// in one step, so a concurrent reader observes either the fully-old or the
// fully-new chunk set, never a partial mix. The mutex only serializes
// concurrent rebuilds.
type Index struct {
	source DocumentSource
	logger *slog.Logger

	rebuildMu sync.Mutex
	current   atomic.Pointer[snapshot]
}

// NewIndex creates an empty, unloaded index over the given source.
func NewIndex(source DocumentSource, logger *slog.Logger) *Index {
	ix := &Index{
		source: source,
		logger: logger.With("component", "index"),
	}
	ix.current.Store(&snapshot{})
	return ix
}

// Load enumerates the corpus, chunks every document, and publishes the
// result. A document that cannot be read is skipped with a warning; only a
// failure to enumerate the corpus at all leaves the index unusable
// (indexed=false).
func (ix *Index) Load() error {
	ix.rebuildMu.Lock()
	defer ix.rebuildMu.Unlock()

	names, err := ix.source.List()
	if err != nil {
		ix.current.Store(&snapshot{})
		return fmt.Errorf("enumerating documents: %w", err)
	}

	var chunks []Chunk
	for _, name := range names {
		text, err := ix.source.Read(name)
		if err != nil {
			ix.logger.Warn("skipping unreadable document", "name", name, "error", err)
			continue
		}
		chunks = append(chunks, SplitDocument(name, text)...)
	}

	ix.current.Store(&snapshot{chunks: chunks, indexed: true})
	ix.logger.Info("corpus indexed", "chunks", len(chunks), "documents", len(names))
	return nil
}

// Rebuild clears and re-runs Load, returning the resulting indexed flag.
func (ix *Index) Rebuild() bool {
	if err := ix.Load(); err != nil {
		ix.logger.Error("reindexing failed", "error", err)
		return false
	}
	return true
}

// Chunks returns the current chunk collection and whether the index has been
// successfully built. The returned slice is shared and must not be mutated.
func (ix *Index) Chunks() ([]Chunk, bool) {
	snap := ix.current.Load()
	return snap.chunks, snap.indexed
}

// Status reports the indexed flag, the chunk count, and the de-duplicated
// document names present in the current chunk collection.
func (ix *Index) Status() IndexStatus {
	snap := ix.current.Load()

	seen := make(map[string]struct{})
	var docs []string
	for _, c := range snap.chunks {
		if _, ok := seen[c.Document]; ok {
			continue
		}
		seen[c.Document] = struct{}{}
		docs = append(docs, c.Document)
	}

	return IndexStatus{
		Indexed:    snap.indexed,
		ChunkCount: len(snap.chunks),
		Documents:  docs,
	}
}
