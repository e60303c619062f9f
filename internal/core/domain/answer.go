package domain

import "time"

// Source describes one piece of context that contributed to an answer.
type Source struct {
	// Type is "text" for a vector search hit or "table" for a table record.
	Type string `json:"type"`

	// Filename is the document the context came from.
	Filename string `json:"filename"`

	// Snippet is a truncated preview of the context content.
	Snippet string `json:"snippet"`
}

// Answer is the result of a hybrid query.
type Answer struct {
	// Text is the generated answer. It is always well formed: on missing
	// context it is the fixed refusal sentence, on generation failure it is
	// a fixed degraded-answer string.
	Text string `json:"answer"`

	// Sources lists the context the answer was grounded on.
	Sources []Source `json:"sources"`

	// Prompt is the fully rendered prompt, populated only in debug mode.
	Prompt string `json:"prompt,omitempty"`

	// Cached reports whether the answer was served from the query cache.
	Cached bool `json:"cached"`

	// Took is how long retrieval and generation ran. Zero for cache hits.
	Took time.Duration `json:"-"`
}

// IngestResult summarises one processed document.
type IngestResult struct {
	// SourceFilename is the ingested document's base name.
	SourceFilename string `json:"source_filename"`

	// Tables is the number of table records persisted.
	Tables int `json:"tables"`

	// Chunks is the number of text chunks embedded and upserted,
	// including searchable-text chunks derived from tables.
	Chunks int `json:"chunks"`

	// Strategy is the partitioning strategy actually used, after any
	// fallback from hi_res to fast.
	Strategy Strategy `json:"strategy"`
}
