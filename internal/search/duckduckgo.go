package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ai_tutor/internal/domain"
)

// DuckDuckGo queries the Instant Answer API.
type DuckDuckGo struct {
	endpoint   string
	maxResults int
	http       *http.Client
	limit      *limiter
}

func NewDuckDuckGo(endpoint string, maxResults int, perSecond float64) *DuckDuckGo {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &DuckDuckGo{
		endpoint:   endpoint,
		maxResults: maxResults,
		http:       &http.Client{Timeout: 15 * time.Second},
		limit:      newLimiter(perSecond),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	Definition    string     `json:"Definition"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	if err := d.limit.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrCollaborator, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: search request: %v", domain.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retry, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		d.limit.Backoff(time.Duration(retry) * time.Second)
		return "", fmt.Errorf("%w: search rate limited", domain.ErrCollaborator)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: search returned status %d", domain.ErrCollaborator, resp.StatusCode)
	}

	var body ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode search response: %v", domain.ErrCollaborator, err)
	}
	return d.render(body), nil
}

func (d *DuckDuckGo) render(r ddgResponse) string {
	var lines []string
	if r.Answer != "" {
		lines = append(lines, r.Answer)
	}
	if r.AbstractText != "" {
		line := r.AbstractText
		if r.Heading != "" {
			line = r.Heading + ": " + line
		}
		if r.AbstractURL != "" {
			line += " (" + r.AbstractURL + ")"
		}
		lines = append(lines, line)
	}
	if r.Definition != "" {
		lines = append(lines, r.Definition)
	}

	var topics []ddgTopic
	for _, t := range r.RelatedTopics {
		if len(t.Topics) > 0 {
			topics = append(topics, t.Topics...)
		} else {
			topics = append(topics, t)
		}
	}
	for _, t := range topics {
		if len(lines) >= d.maxResults {
			break
		}
		if t.Text == "" {
			continue
		}
		line := "- " + t.Text
		if t.FirstURL != "" {
			line += " (" + t.FirstURL + ")"
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return NoResults
	}
	return strings.Join(lines, "\n")
}
