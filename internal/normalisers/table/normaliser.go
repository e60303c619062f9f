// Package table normalises extracted table elements: it builds table
// records at ingestion time and converts stored HTML tables into markdown
// and searchable text.
package table

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

// searchableMinLen is the minimum stripped-text length for a table to be
// worth indexing as a searchable-text chunk.
const searchableMinLen = 10

// SearchablePrefix marks text chunks derived from table content. The
// classifier's preamble rule uses the same marker to keep such chunks from
// being re-ingested as narrative text.
const SearchablePrefix = "Table data: "

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extract builds a TableRecord from a table element. The HTML rendering is
// preferred when the requested format is html and the element has one;
// otherwise the flat text is stored and the content type records the
// fallback.
func Extract(el *domain.DocumentElement, index int, format domain.ContentType) domain.TableRecord {
	content := el.Text
	contentType := domain.ContentText
	if format == domain.ContentHTML && el.HTML != "" {
		content = el.HTML
		contentType = domain.ContentHTML
	}

	return domain.TableRecord{
		TableID:     fmt.Sprintf("table_%d", index),
		Content:     content,
		ContentType: contentType,
		Metadata: domain.TableMetadata{
			PageNumber:  el.Metadata.PageNumber,
			Filename:    el.Metadata.Filename,
			Coordinates: el.Metadata.Coordinates,
			ParentID:    el.Metadata.ParentID,
		},
	}
}

// ToMarkdown converts an HTML table into a row-major markdown table for
// LLM consumption. Header and data cells are treated identically; a
// markdown header-separator row sized to the first row's column count is
// inserted after row 1. Content without table rows passes through
// unchanged so malformed or already-plain input never errors.
func ToMarkdown(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return html
	}

	var lines []string
	rows.Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapse(cell.Text()))
		})

		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")

		// Header separator after the first row.
		if i == 0 {
			separators := make([]string, len(cells))
			for j := range separators {
				separators[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(separators, " | ")+" |")
		}
	})

	return strings.Join(lines, "\n")
}

// SearchableText flattens a table's HTML into a single text chunk so that
// table-only facts remain discoverable by semantic search. Returns ok=false
// when the stripped text is too short to index.
func SearchableText(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	text := collapse(doc.Text())
	if len(text) <= searchableMinLen {
		return "", false
	}
	return SearchablePrefix + text, true
}

// collapse trims the text and squashes whitespace runs to single spaces.
func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
