package app

import (
	"context"
	"fmt"
)

// SearchResult is a retrieved passage with the name of its document.
type SearchResult struct {
	Content    string
	Source     string
	Similarity float32
}

// searchRelevantChunks retrieves the top passages for queryText from the
// current index.
func (a *App) searchRelevantChunks(ctx context.Context, queryText string) ([]SearchResult, error) {
	scored, err := a.index.Query(ctx, queryText, a.cfg.RetrieverK)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		source := "document"
		if doc, ok := a.pipeline.Document(s.Chunk.SourceID); ok {
			source = doc.SourceName
		}
		results = append(results, SearchResult{
			Content:    s.Chunk.Text,
			Source:     source,
			Similarity: s.Similarity,
		})
	}
	return results, nil
}
