package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sift-labs/tableqa/internal/core/domain"
)

func TestFormatTextContext(t *testing.T) {
	chunks := []domain.ScoredChunk{
		{Score: 0.9, Payload: domain.TextChunk{Text: "Revenue grew.", SourceFilename: "report.pdf"}},
		{Score: 0.8, Payload: domain.TextChunk{Text: "Costs were flat.", SourceFilename: "report.pdf"}},
	}

	got := FormatTextContext(chunks)

	assert.Contains(t, got, "[Chunk 1 from report.pdf]\nRevenue grew.")
	assert.Contains(t, got, "[Chunk 2 from report.pdf]\nCosts were flat.")
	assert.Less(t, strings.Index(got, "[Chunk 1"), strings.Index(got, "[Chunk 2"))
}

func TestFormatTextContext_Empty(t *testing.T) {
	assert.Equal(t, NoTextSentinel, FormatTextContext(nil))
}

func TestFormatTextContext_UnknownSource(t *testing.T) {
	chunks := []domain.ScoredChunk{{Payload: domain.TextChunk{Text: "orphan chunk"}}}

	assert.Contains(t, FormatTextContext(chunks), "[Chunk 1 from unknown]")
}

func TestFormatTableContext_ConvertsHTMLToMarkdown(t *testing.T) {
	tables := []domain.TableRecord{
		{
			TableID:        "table_2",
			Content:        "<table><tr><th>Phase</th><th>Duration</th></tr><tr><td>Requirements</td><td>2w</td></tr></table>",
			ContentType:    domain.ContentHTML,
			SourceFilename: "plan.pdf",
		},
	}

	got := FormatTableContext(tables)

	assert.Contains(t, got, "[Table 1 - table_2 from plan.pdf]")
	assert.Contains(t, got, "| Phase | Duration |")
	assert.Contains(t, got, "| Requirements | 2w |")
	assert.NotContains(t, got, "<table>")
}

func TestFormatTableContext_TextContentPassedThrough(t *testing.T) {
	tables := []domain.TableRecord{
		{TableID: "table_0", Content: "Phase Duration Requirements 2w", ContentType: domain.ContentText, SourceFilename: "plan.pdf"},
	}

	got := FormatTableContext(tables)

	assert.Contains(t, got, "Phase Duration Requirements 2w")
}

func TestFormatTableContext_Empty(t *testing.T) {
	assert.Equal(t, NoTablesSentinel, FormatTableContext(nil))
}

func TestBuildPrompt_SectionOrder(t *testing.T) {
	prompt := BuildPrompt("What was Q4 revenue?", "text context", "table context")

	sections := []string{
		"CRITICAL INSTRUCTIONS",
		"CONTEXT 1: RELEVANT TEXT CHUNKS",
		"text context",
		"CONTEXT 2: RELEVANT TABLES",
		"table context",
		"USER QUESTION",
		"What was Q4 revenue?",
		"YOUR ANSWER:",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		require.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestBuildPrompt_ContainsRefusalSentence(t *testing.T) {
	prompt := BuildPrompt("q", NoTextSentinel, NoTablesSentinel)

	assert.Contains(t, prompt, RefusalSentence)
	assert.Contains(t, prompt, NoTextSentinel)
	assert.Contains(t, prompt, NoTablesSentinel)
}

func TestBuildPrompt_RowReadingRules(t *testing.T) {
	prompt := BuildPrompt("q", "t", "t")

	// The first-data-row and complete-list rules are the prompt's fix for
	// models skipping the row right after a header.
	assert.Contains(t, prompt, "DO NOT SKIP IT")
	assert.Contains(t, prompt, "include ALL rows")
	assert.Contains(t, prompt, "DOCUMENT CONTEXT MATTERS")
}
