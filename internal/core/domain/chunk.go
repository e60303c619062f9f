package domain

// TextChunk is a unit of narrative text queued for embedding.
type TextChunk struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// SourceFilename is the document the chunk came from.
	SourceFilename string `json:"source_filename"`

	// ChunkIndex is the chunk's position within the document's
	// extracted-text sequence.
	ChunkIndex int `json:"chunk_index"`
}

// VectorPoint pairs a chunk with its embedding for upsert into the vector
// index. Once upserted, the point is owned by the index.
type VectorPoint struct {
	// ID is a generated unique identifier for the point.
	ID string

	// Vector is the embedding of the chunk text.
	Vector []float32

	// Payload is the chunk data stored alongside the vector.
	Payload TextChunk
}

// ScoredChunk is a vector search hit: a chunk payload with its cosine
// similarity to the query.
type ScoredChunk struct {
	// Score is the similarity score, higher is more relevant.
	Score float64 `json:"score"`

	// Payload is the stored chunk.
	Payload TextChunk `json:"payload"`
}

// ChunkFilter restricts a vector search to a subset of stored points.
// The zero value matches every point.
type ChunkFilter struct {
	// SourceFilename, when non-empty, limits hits to one document.
	SourceFilename string
}
