package router

import (
	"fmt"
	"strings"

	"ai_tutor/internal/domain"
	"ai_tutor/internal/index"
)

// HistoryWindow is the number of past turns included in a prompt.
const HistoryWindow = 4

const (
	preamble    = "You are a helpful AI tutor and research assistant."
	instruction = "Based on the information above, provide a clear, helpful answer. " +
		"If the information doesn't fully answer the question, say so and provide what you can."

	noTools       = "No search tools are currently available. Please upload a document or configure web search."
	noDocumentHit = "No relevant information found in the document."
)

// BuildPrompt lays out preamble, history, query, context and the closing
// instruction in that order.
func BuildPrompt(history []domain.Turn, query, context string) string {
	var buf strings.Builder
	buf.WriteString(preamble)
	buf.WriteString("\n\nPrevious conversation:\n")
	buf.WriteString(RenderHistory(history))
	buf.WriteString("\n\nCurrent query: ")
	buf.WriteString(query)
	buf.WriteString("\n\nRelevant information:\n")
	buf.WriteString(context)
	buf.WriteString("\n\n")
	buf.WriteString(instruction)
	return buf.String()
}

// RenderHistory writes one "<Role>: <text>" line per turn.
func RenderHistory(turns []domain.Turn) string {
	var buf strings.Builder
	for _, t := range turns {
		buf.WriteString(t.Label())
		buf.WriteString(": ")
		buf.WriteString(t.Text)
		buf.WriteString("\n")
	}
	return buf.String()
}

// RenderExcerpts formats retrieved chunks as numbered excerpts.
func RenderExcerpts(results []index.Scored) string {
	if len(results) == 0 {
		return noDocumentHit
	}
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Excerpt %d:\n%s", i+1, strings.TrimSpace(r.Chunk.Text)))
	}
	return strings.Join(blocks, "\n\n")
}
