package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"ai_tutor/internal/domain"
)

// Google queries the Programmable Search (Custom Search JSON) API.
type Google struct {
	svc        *customsearch.Service
	cx         string
	maxResults int
	limit      *limiter
}

func NewGoogle(ctx context.Context, apiKey, cx string, maxResults int, perSecond float64, opts ...option.ClientOption) (*Google, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	// The API caps a single page at 10 results.
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}
	return &Google{
		svc:        svc,
		cx:         cx,
		maxResults: maxResults,
		limit:      newLimiter(perSecond),
	}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string) (string, error) {
	if err := g.limit.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, err)
	}

	res, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(g.maxResults)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			g.limit.Backoff(0)
		}
		return "", fmt.Errorf("%w: google search: %v", domain.ErrCollaborator, err)
	}

	if len(res.Items) == 0 {
		return NoResults, nil
	}
	blocks := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s", item.Title, item.Link, item.Snippet))
	}
	return strings.Join(blocks, "\n\n"), nil
}
