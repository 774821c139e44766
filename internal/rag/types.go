package rag

// Chunk is a retained passage of a corpus document, the unit of retrieval.
// Chunks are owned by the Index, immutable once created, and replaced
// wholesale on reindex.
type Chunk struct {
	// ID is derived from the document name and ordinal, so it is stable
	// across rebuilds as long as chunk boundaries do not move.
	ID       string
	Document string
	Text     string
	// Ordinal is the chunk's position among the document's retained
	// passages, not its position in the raw text.
	Ordinal int
}

// ScoredChunk pairs a chunk with its relevance score for one query.
// Transient: produced per search call, never persisted.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Citation is the externally visible form of a scored chunk. It carries the
// full passage text, untruncated. Field names match the wire protocol.
type Citation struct {
	Filename       string  `json:"filename"`
	Content        string  `json:"content"`
	ParagraphIndex int     `json:"paragraphIndex"`
	Score          float64 `json:"score"`
}

// IndexStatus describes the current state of the chunk index.
type IndexStatus struct {
	Indexed    bool     `json:"indexed"`
	ChunkCount int      `json:"chunkCount"`
	Documents  []string `json:"documents"`
}
