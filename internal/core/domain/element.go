package domain

// ElementType identifies the layout class assigned to a document element
// by the partitioning service.
type ElementType string

// Element types produced by the document partitioner.
const (
	ElementTable         ElementType = "Table"
	ElementNarrativeText ElementType = "NarrativeText"
	ElementTitle         ElementType = "Title"
	ElementText          ElementType = "Text"
	ElementListItem      ElementType = "ListItem"
)

// IsNarrative reports whether the element type carries free-form prose
// that belongs in the vector index rather than the table store.
func (t ElementType) IsNarrative() bool {
	switch t {
	case ElementNarrativeText, ElementTitle, ElementText, ElementListItem:
		return true
	default:
		return false
	}
}

// Strategy selects the layout-detection mode of the partitioner.
type Strategy string

// Partitioning strategies. HiRes gives the best table detection but may be
// unavailable in some environments; callers fall back to Fast once.
const (
	StrategyAuto  Strategy = "auto"
	StrategyFast  Strategy = "fast"
	StrategyHiRes Strategy = "hi_res"
)

// Valid reports whether the strategy is one the partitioner understands.
func (s Strategy) Valid() bool {
	return s == StrategyAuto || s == StrategyFast || s == StrategyHiRes
}

// ElementMetadata carries page and position information attached to an
// element by the partitioner.
type ElementMetadata struct {
	// PageNumber is the 1-based page the element was found on.
	PageNumber int

	// Filename is the source file's base name.
	Filename string

	// Coordinates are the bounding-box points on the page, if known.
	Coordinates [][]float64

	// ParentID links to an enclosing element (e.g. a section title).
	ParentID string
}

// DocumentElement is one typed fragment of a parsed document.
// Elements are immutable: they are produced once per parse and only read
// afterwards.
type DocumentElement struct {
	// Type is the layout class assigned by the partitioner.
	Type ElementType

	// Text is the flat text content of the element.
	Text string

	// HTML is the structural rendering, populated for tables when the
	// partitioner inferred table structure.
	HTML string

	// Metadata carries page and position information.
	Metadata ElementMetadata
}
