package domain

// ContentType tells how a table's content is encoded.
type ContentType string

// Table content encodings.
const (
	ContentHTML ContentType = "html"
	ContentText ContentType = "text"
)

// TableMetadata is the positional metadata persisted with a table record.
type TableMetadata struct {
	// PageNumber is the page the table appeared on.
	PageNumber int `json:"page_number"`

	// Filename is the source file's base name as reported by the partitioner.
	Filename string `json:"filename"`

	// Coordinates are the table's bounding-box points, if known.
	Coordinates [][]float64 `json:"coordinates,omitempty"`

	// ParentID links to the enclosing element, if any.
	ParentID string `json:"parent_id,omitempty"`
}

// TableRecord is a structured table extracted from a document, stored in
// the table store for exact lookups. Backend primary keys never appear
// here: they are an implementation detail of the store.
type TableRecord struct {
	// TableID is the sequence-scoped identifier, formatted "table_<index>"
	// where index is the element's position in the parse sequence.
	TableID string `json:"table_id"`

	// Content is the table body, either HTML markup or flat text.
	Content string `json:"content"`

	// ContentType records which encoding Content uses.
	ContentType ContentType `json:"content_type"`

	// Metadata carries page and position information.
	Metadata TableMetadata `json:"metadata"`

	// SourceFilename is attached at the ingestion boundary and is the key
	// used to scope table lookups to a single document.
	SourceFilename string `json:"source_filename"`
}

// TableFilter restricts a table store lookup.
// The zero value matches every record.
type TableFilter struct {
	// SourceFilename, when non-empty, limits results to one document.
	SourceFilename string
}
