// Package search provides the web search collaborators.
package search

import (
	"context"
	"fmt"

	"ai_tutor/internal/domain"
)

// NoResults is returned when a provider finds nothing for a query.
const NoResults = "No good search result was found."

// Searcher runs a web search and renders the results as plain text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
	Name() string
}

type Config struct {
	Provider     string // duckduckgo, google or none
	URL          string
	MaxResults   int
	PerSecond    float64
	GoogleAPIKey string
	GoogleCX     string
}

// New builds the configured searcher. It returns a nil Searcher when search
// is disabled or the provider lacks credentials.
func New(ctx context.Context, cfg Config) (Searcher, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "duckduckgo":
		return NewDuckDuckGo(cfg.URL, cfg.MaxResults, cfg.PerSecond), nil
	case "google":
		if cfg.GoogleAPIKey == "" || cfg.GoogleCX == "" {
			return nil, nil
		}
		g, err := NewGoogle(ctx, cfg.GoogleAPIKey, cfg.GoogleCX, cfg.MaxResults, cfg.PerSecond)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown search provider %q", domain.ErrConfiguration, cfg.Provider)
	}
}
