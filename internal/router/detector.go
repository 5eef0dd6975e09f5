package router

import (
	"context"
	"strings"

	"ai_tutor/internal/logger"
)

// Detector decides whether an unflagged query is about the loaded document.
// It is only consulted when a ready retriever exists.
type Detector interface {
	WantsDocument(ctx context.Context, query string, r Retriever) bool
}

// DefaultKeywords are the document-referring terms of the keyword heuristic.
var DefaultKeywords = []string{"document", "pdf", "note", "lecture"}

// KeywordDetector matches any keyword as a case-insensitive substring.
type KeywordDetector struct {
	Keywords []string
}

func (d KeywordDetector) WantsDocument(_ context.Context, query string, _ Retriever) bool {
	keywords := d.Keywords
	if keywords == nil {
		keywords = DefaultKeywords
	}
	q := strings.ToLower(query)
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// RelevanceDetector also routes to the document when its best passage is
// similar enough to the query. Keyword matches short-circuit the lookup.
// Each similarity decision is logged at debug level when Log is set.
type RelevanceDetector struct {
	Keywords      KeywordDetector
	MinSimilarity float32
	Log           *logger.Logger
}

func (d RelevanceDetector) WantsDocument(ctx context.Context, query string, r Retriever) bool {
	if d.Keywords.WantsDocument(ctx, query, r) {
		return true
	}
	if r == nil || d.MinSimilarity <= 0 {
		return false
	}
	top, err := r.Query(ctx, query, 1)
	if err != nil || len(top) == 0 {
		return false
	}
	wants := top[0].Similarity >= d.MinSimilarity
	if d.Log != nil {
		d.Log.Debug().
			Float32("top_similarity", top[0].Similarity).
			Float32("min_similarity", d.MinSimilarity).
			Bool("document", wants).
			Msg("relevance routing")
	}
	return wants
}
