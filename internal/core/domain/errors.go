package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileNotFound indicates the document to ingest does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotPDF indicates the document to ingest is not a PDF.
	ErrNotPDF = errors.New("file is not a PDF")

	// ErrStrategyUnavailable indicates the requested partitioning strategy
	// cannot run in this environment. Ingestion retries once with the fast
	// strategy before surfacing the error.
	ErrStrategyUnavailable = errors.New("partitioning strategy unavailable")

	// ErrBackendUnavailable indicates a persistence backend could not be
	// reached. Never retried inside the core; surfaced to the caller.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and semantic retrieval are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generative model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrTableStoreUnavailable indicates the table store is not configured.
	ErrTableStoreUnavailable = errors.New("table store unavailable")
)
