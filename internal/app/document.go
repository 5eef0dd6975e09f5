package app

import (
	"context"
	"fmt"

	"ai_tutor/internal/domain"
)

const (
	noDocuments   = "No documents available. Please upload a document first."
	noDocument    = "No document loaded."
	noRelevantHit = "I couldn't find relevant information in the uploaded documents. " +
		"Please try rephrasing your question or upload relevant documents."

	defaultSummaryQuery = "summary of main topics and key concepts"
)

// DocumentAnswer is the reply to a direct document question.
type DocumentAnswer struct {
	Response       string
	RelevantChunks int
}

// IngestBytes indexes an uploaded PDF held in memory.
func (a *App) IngestBytes(ctx context.Context, data []byte, sourceName string) domain.IngestResult {
	return a.pipeline.FromBytes(ctx, data, sourceName)
}

// IngestText indexes raw text as a single-page document.
func (a *App) IngestText(ctx context.Context, text, sourceName string) domain.IngestResult {
	return a.pipeline.FromText(ctx, text, sourceName)
}

// IngestFile indexes a PDF, text or markdown file from disk.
func (a *App) IngestFile(ctx context.Context, path, name string) domain.IngestResult {
	return a.pipeline.FromFile(ctx, path, name)
}

// CurrentDocument returns the most recently ingested document, if the index
// holds anything.
func (a *App) CurrentDocument() (domain.Document, bool) {
	if !a.index.Ready() {
		return domain.Document{}, false
	}
	return a.pipeline.Current()
}

// Documents lists every document ingested so far.
func (a *App) Documents() []domain.Document {
	return a.pipeline.Documents()
}

// QueryDocument answers query from the document alone, without routing.
// It fails with domain.ErrNoDocument when nothing is indexed; retrieval and
// model failures come back as the response text. A non-empty sessionID
// records the exchange in that session's history.
func (a *App) QueryDocument(ctx context.Context, query, sessionID string, teaching bool) (DocumentAnswer, error) {
	if !a.index.Ready() {
		return DocumentAnswer{Response: noDocuments}, domain.ErrNoDocument
	}

	answer := a.queryDocument(ctx, query, teaching)
	if sessionID != "" {
		a.memory.AppendTurns(sessionID,
			domain.Turn{Role: domain.RoleUser, Text: query},
			domain.Turn{Role: domain.RoleAssistant, Text: answer.Response},
		)
	}
	return answer, nil
}

func (a *App) queryDocument(ctx context.Context, query string, teaching bool) DocumentAnswer {
	results, err := a.searchRelevantChunks(ctx, query)
	if err != nil {
		a.log.Error().Err(err).Msg("document query failed")
		return DocumentAnswer{Response: fmt.Sprintf("Error processing query: %v", err)}
	}
	if len(results) == 0 {
		return DocumentAnswer{Response: noRelevantHit}
	}

	prompt := buildPlainPrompt(query, results)
	if teaching {
		prompt = buildTeachingPrompt(query, results)
	}

	out, err := a.model.Complete(ctx, prompt)
	if err != nil {
		a.log.Error().Err(err).Msg("document query failed")
		return DocumentAnswer{Response: fmt.Sprintf("Error processing query: %v", err), RelevantChunks: len(results)}
	}
	return DocumentAnswer{Response: out, RelevantChunks: len(results)}
}

// DocumentSummary summarizes the indexed material, optionally focused by
// query. Failures come back as the summary text.
func (a *App) DocumentSummary(ctx context.Context, query string) string {
	if !a.index.Ready() {
		return noDocument
	}
	if query == "" {
		query = defaultSummaryQuery
	}

	results, err := a.searchRelevantChunks(ctx, query)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to generate document summary")
		return fmt.Sprintf("Error generating summary: %v", err)
	}

	out, err := a.model.Complete(ctx, buildSummaryPrompt(results))
	if err != nil {
		a.log.Error().Err(err).Msg("failed to generate document summary")
		return fmt.Sprintf("Error generating summary: %v", err)
	}
	return out
}
