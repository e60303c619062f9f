package services

import (
	"fmt"
	"strings"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/normalisers/table"
)

// Fixed strings the generative model is tuned against. The section order
// of the prompt and the exact refusal sentence are load-bearing: they are
// the only grounding mechanism against hallucination, so they must not be
// reworded.
const (
	// NoTextSentinel renders in place of an empty text context.
	NoTextSentinel = "No relevant text chunks found."

	// NoTablesSentinel renders in place of an empty table context.
	NoTablesSentinel = "No relevant tables found."

	// RefusalSentence is the fixed answer when the context holds no match.
	RefusalSentence = "I could not find the answer in the provided documents."

	// DegradedAnswer replaces the answer when generation itself fails.
	DegradedAnswer = "There was an error generating the answer."

	// SystemMessage frames every generation call.
	SystemMessage = "You are a helpful document assistant that only uses provided context."
)

// FormatTextContext renders retrieved chunks for the prompt, in rank order.
func FormatTextContext(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoTextSentinel
	}

	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		source := chunk.Payload.SourceFilename
		if source == "" {
			source = "unknown"
		}
		blocks[i] = fmt.Sprintf("[Chunk %d from %s]\n%s", i+1, source, chunk.Payload.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatTableContext renders retrieved tables for the prompt, converting
// HTML tables to markdown so the model reads rows reliably.
func FormatTableContext(tables []domain.TableRecord) string {
	if len(tables) == 0 {
		return NoTablesSentinel
	}

	blocks := make([]string, len(tables))
	for i, record := range tables {
		content := record.Content
		if record.ContentType == domain.ContentHTML && strings.Contains(strings.ToLower(content), "<table") {
			content = table.ToMarkdown(content)
		}

		source := record.SourceFilename
		if source == "" {
			source = "unknown"
		}
		tableID := record.TableID
		if tableID == "" {
			tableID = fmt.Sprintf("table_%d", i+1)
		}

		blocks[i] = fmt.Sprintf("[Table %d - %s from %s]\n%s", i+1, tableID, source, content)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the generation prompt in its fixed section order:
// role framing, the document-context-inheritance rule, the complete-row
// reading rules, the precision/refusal directive, both context blocks, and
// the question.
func BuildPrompt(question, formattedText, formattedTables string) string {
	return fmt.Sprintf(`You are an expert assistant for answering questions about complex documents.
You will be given context from two sources:
1. RELEVANT TEXT CHUNKS: Semantically similar text from the documents
2. RELEVANT TABLES: Structured tables from the documents in markdown format

Your task is to answer the user's question based *only* on this provided context.

CRITICAL INSTRUCTIONS:

1. DOCUMENT CONTEXT MATTERS:
   - If a document is titled "Quarterly Financial Report - Q4 2023", then ALL data in that document (including tables) is from Q4 2023
   - If a document is titled "Annual Report 2023", then ALL data in it is from 2023
   - The document title, headers, and surrounding text provide temporal and contextual information for ALL data in that document
   - When answering about "Q4" or specific time periods, check if the document title indicates this time period

2. TABLE READING - READ EVERY SINGLE ROW:
   - Read EVERY row in the table from top to bottom, including the FIRST row after the header
   - When a table has a header row (like "| Phase | Duration | Start Date | End Date |"), the data rows come IMMEDIATELY after
   - The FIRST data row is just as important as any other row - DO NOT SKIP IT
   - Example: If you see "| Phase | ... |" followed by "| Requirements | ... |", then "Requirements" is the FIRST phase
   - Count the rows mentally: 1st row, 2nd row, 3rd row, etc. Include ALL of them

3. LISTING VALUES FROM A COLUMN:
   - When asked to "list all X" where X is a column name, extract EVERY value from that column
   - Start from the first data row and go to the last data row
   - Do not skip any rows in between
   - Example: If asked "list all phases" and the Phase column has 5 rows, list all 5 values

4. COMPLETE LISTS:
   - When listing items from a table, include ALL rows, not just some of them
   - Do not skip the first data row or any other rows
   - If the user asks for a list, provide the COMPLETE list from the table

5. PRECISION:
   - Be precise and cite specific values when answering from tables
   - If the answer is not found in the context, say "%s"

---
CONTEXT 1: RELEVANT TEXT CHUNKS
---
%s

---
CONTEXT 2: RELEVANT TABLES
---
%s

---
USER QUESTION:
---
%s

---
YOUR ANSWER:
`, RefusalSentence, formattedText, formattedTables, question)
}
