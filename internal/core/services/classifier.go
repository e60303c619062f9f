package services

import (
	"regexp"
	"strings"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/logger"
	"github.com/sift-labs/tableqa/internal/normalisers/table"
)

// Layout detection occasionally tags table fragments as narrative text.
// Letting those fragments into the vector index would duplicate facts that
// already live in the table store and dilute semantic search, so narrative
// elements are screened with the table-likeness heuristic before embedding.

var (
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	currencyPattern = regexp.MustCompile(`\$[\d,]+(\.\d+)?`)
	numericToken    = regexp.MustCompile(`^[\d$,.-]+`)
)

// TableLikeness is the heuristic that decides whether a narrative-text
// element is really a table fragment. Its five rules are independent and
// OR'd together; the thresholds are empirically tuned and deliberately
// configurable rather than fixed.
type TableLikeness struct {
	// PreambleMarkers are prefixes that mark content as table-derived.
	PreambleMarkers []string

	// MinDates is the number of ISO-date substrings read as a date column.
	MinDates int

	// MinTabs is the number of tab characters read as table formatting.
	MinTabs int

	// MinTokens is the minimum token count before the alternation rule
	// applies, and MinTransitions the number of numeric/non-numeric
	// alternations read as label/value table cells.
	MinTokens      int
	MinTransitions int

	// MinCurrency is the number of currency amounts read as a money column.
	MinCurrency int
}

// DefaultTableLikeness returns the heuristic with its tuned thresholds.
func DefaultTableLikeness() TableLikeness {
	return TableLikeness{
		PreambleMarkers: []string{"Table data:", "table data:", "| ", "<table"},
		MinDates:        3,
		MinTabs:         3,
		MinTokens:       8,
		MinTransitions:  6,
		MinCurrency:     3,
	}
}

// IsTableLike reports whether text structurally resembles tabular data.
// Pure function: repeated calls on the same input give the same result.
func (h TableLikeness) IsTableLike(text string) bool {
	return h.hasPreamble(text) ||
		h.hasDateColumn(text) ||
		h.hasTabFormatting(text) ||
		h.hasAlternatingCells(text) ||
		h.hasCurrencyColumn(text)
}

// hasPreamble matches known table-preamble markers at the start of the text.
func (h TableLikeness) hasPreamble(text string) bool {
	for _, marker := range h.PreambleMarkers {
		if strings.HasPrefix(text, marker) {
			return true
		}
	}
	return false
}

// hasDateColumn reads repeated ISO dates as a column of dates.
func (h TableLikeness) hasDateColumn(text string) bool {
	return len(isoDatePattern.FindAllString(text, h.MinDates)) >= h.MinDates
}

// hasTabFormatting reads repeated tab characters as cell separators.
func (h TableLikeness) hasTabFormatting(text string) bool {
	return strings.Count(text, "\t") >= h.MinTabs
}

// hasAlternatingCells reads frequent switches between numeric-like and
// word-like tokens as alternating label/value table cells, e.g.
// "Design 2024-01-30 2024-02-26 Development 2024-02-27".
func (h TableLikeness) hasAlternatingCells(text string) bool {
	words := strings.Fields(text)
	if len(words) < h.MinTokens {
		return false
	}
	transitions := 0
	for i := 0; i < len(words)-1; i++ {
		if numericToken.MatchString(words[i]) != numericToken.MatchString(words[i+1]) {
			transitions++
		}
	}
	return transitions >= h.MinTransitions
}

// hasCurrencyColumn reads repeated currency amounts as financial table data.
func (h TableLikeness) hasCurrencyColumn(text string) bool {
	return len(currencyPattern.FindAllString(text, h.MinCurrency)) >= h.MinCurrency
}

// Classifier separates a parsed element sequence into table records and
// embeddable narrative text. Purely functional over its input.
type Classifier struct {
	heuristic TableLikeness
	format    domain.ContentType
}

// NewClassifier creates a classifier extracting tables in the given format.
func NewClassifier(heuristic TableLikeness, format domain.ContentType) *Classifier {
	return &Classifier{heuristic: heuristic, format: format}
}

// Classify runs two passes over the element sequence: the first converts
// every Table element into a TableRecord, the second collects narrative
// text, discarding empties and anything the heuristic flags as table-like.
// A table's content never appears in both outputs.
func (c *Classifier) Classify(elements []domain.DocumentElement) ([]domain.TableRecord, []string) {
	var tables []domain.TableRecord
	for idx := range elements {
		if elements[idx].Type == domain.ElementTable {
			tables = append(tables, table.Extract(&elements[idx], idx, c.format))
		}
	}

	var texts []string
	for i := range elements {
		if !elements[i].Type.IsNarrative() {
			continue
		}
		text := strings.TrimSpace(elements[i].Text)
		if text == "" {
			continue
		}
		if c.heuristic.IsTableLike(text) {
			logger.Debug("discarding table-like narrative text: %.60q", text)
			continue
		}
		texts = append(texts, text)
	}

	return tables, texts
}
