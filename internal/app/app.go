// Package app wires the tutor services together and exposes the operations
// the HTTP API and the CLI call.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai_tutor/internal/chunker"
	"ai_tutor/internal/config"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/index"
	"ai_tutor/internal/ingest"
	"ai_tutor/internal/llm"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/memory"
	"ai_tutor/internal/metrics"
	"ai_tutor/internal/router"
	"ai_tutor/internal/search"
)

// Deps are the external collaborators. Embedder and Model are required;
// a nil Search disables web search.
type Deps struct {
	Embedder index.Embedder
	Model    router.LanguageModel
	Search   router.WebSearcher
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

type App struct {
	cfg *config.Config
	log *logger.Logger

	index    *index.Index
	pipeline *ingest.Pipeline
	memory   *memory.Store
	router   *router.Router
	model    router.LanguageModel
	search   router.WebSearcher
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Embedder == nil || deps.Model == nil {
		return nil, fmt.Errorf("%w: embedder and language model are required", domain.ErrConfiguration)
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	factory, err := chunker.NewFactory(chunker.Config{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		log:    log.Component("app"),
		model:  deps.Model,
		search: deps.Search,
	}

	a.index = index.New(index.NewChromemStore(cfg.DBFile), deps.Embedder,
		index.WithConcurrency(cfg.IngestConcurrency),
		index.WithLogger(log),
		index.WithMetrics(deps.Metrics),
	)

	a.pipeline = ingest.New(a.index, factory,
		ingest.WithMetadataFile(cfg.MetadataFile),
		ingest.WithLogger(log),
		ingest.WithMetrics(deps.Metrics),
	)

	a.memory = memory.New(
		memory.WithTTL(cfg.SessionTTL),
		memory.WithMetrics(deps.Metrics),
	)

	a.router = router.New(a.tools, deps.Model, a.memory,
		router.WithDetector(router.RelevanceDetector{
			MinSimilarity: cfg.RouteMinSimilarity,
			Log:           log.Component("router"),
		}),
		router.WithTopK(cfg.RetrieverK),
		router.WithLogger(log),
		router.WithMetrics(deps.Metrics),
	)

	a.pipeline.OnIngest(a.router.ReloadTools)

	return a, nil
}

// DepsFromConfig builds the remote embedder, language model and web search
// described by cfg.
func DepsFromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (Deps, error) {
	if log == nil {
		log = logger.Nop()
	}
	embedder, err := index.NewEmbedder(cfg.EmbedProvider, cfg.EmbedURL, cfg.EmbedKey, cfg.EmbedModel)
	if err != nil {
		return Deps{}, err
	}

	model := llm.New(llm.Config{
		URL:         cfg.LLMURL,
		Key:         cfg.LLMKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	})

	searcher, err := search.New(ctx, search.Config{
		Provider:     cfg.SearchProvider,
		URL:          cfg.SearchURL,
		MaxResults:   cfg.SearchMaxResults,
		PerSecond:    cfg.SearchRate,
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCX:     cfg.GoogleCX,
	})
	if err != nil {
		return Deps{}, err
	}

	deps := Deps{Embedder: embedder, Model: model, Logger: log, Metrics: m}
	if searcher != nil {
		deps.Search = searcher
		log.Info().Str("provider", searcher.Name()).Msg("web search enabled")
	} else {
		log.Warn().Str("provider", cfg.SearchProvider).Msg("web search disabled")
	}
	return deps, nil
}

// Init restores the persisted index, ingests the default document when the
// index is empty and starts the session janitor.
func (a *App) Init(ctx context.Context) error {
	if a.cfg.EmbedProvider == "ollama" {
		if err := ensureOllamaModel(ctx, a.cfg.EmbedURL, a.cfg.EmbedModel, a.log); err != nil {
			a.log.Warn().Err(err).Msg("embedding model check failed")
		}
	}

	if err := a.index.Open(ctx); err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	if err := a.pipeline.Bootstrap(ctx, a.cfg.PDFPath); err != nil {
		return err
	}
	a.router.ReloadTools()

	if a.cfg.SessionTTL > 0 {
		go a.memory.Run(ctx, a.cfg.SessionTTL/2)
	}

	a.log.Info().
		Bool("rag_available", a.index.Ready()).
		Int("chunks", a.index.Count()).
		Msg("tutor initialized")
	return nil
}

// tools reports the collaborators usable right now. The document retriever
// only counts once something has been indexed.
func (a *App) tools() router.Tools {
	var t router.Tools
	if a.index.Ready() {
		t.Retriever = a.index
	}
	if a.search != nil {
		t.Search = a.search
	}
	return t
}

// Chat runs one routed chat turn.
func (a *App) Chat(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply {
	return a.router.Chat(ctx, message, sessionID, useDocument)
}

// ClearSession forgets the conversation of sessionID.
func (a *App) ClearSession(sessionID string) {
	a.memory.ClearSession(sessionID)
}

func (a *App) Status() domain.Status {
	return a.router.Status()
}

// History returns the recorded turns of sessionID, oldest first.
func (a *App) History(sessionID string) []domain.Turn {
	return a.memory.Messages(sessionID, 0)
}

// ensureOllamaModel checks that Ollama serves model and pulls it otherwise.
// baseURL is the Ollama API root, e.g. http://localhost:11434/api.
func ensureOllamaModel(ctx context.Context, baseURL, model string, log *logger.Logger) error {
	type ollamaPullRequest struct {
		Name   string `json:"name"`
		Stream bool   `json:"stream"`
	}
	type ollamaTags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	baseURL = strings.TrimRight(baseURL, "/")
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/tags", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama is not running at %s: status %d", baseURL, resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			log.Info().Str("model", model).Msg("embedding model is available")
			return nil
		}
	}

	log.Info().Str("model", model).Msg("embedding model not found, pulling")
	body, _ := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
	pull, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	pull.Header.Set("Content-Type", "application/json")

	// Pulling can take minutes; only the caller's context bounds it.
	pullResp, err := http.DefaultClient.Do(pull)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(pullResp.Body, 512))
		return fmt.Errorf("failed to pull model %s: status %d: %s", model, pullResp.StatusCode, msg)
	}
	log.Info().Str("model", model).Msg("embedding model pulled")
	return nil
}
