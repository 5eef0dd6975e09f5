// Package index owns the persistent vector index of document chunks.
package index

import (
	"context"
	"fmt"
	"sync"

	"ai_tutor/internal/chunker"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

// Scored is a retrieved chunk with its similarity to the query.
type Scored struct {
	Chunk      chunker.Chunk
	Similarity float32
}

// Index embeds chunks and serves similarity queries over them.
//
// Ingest stages every embedding before touching the store and commits under
// the write lock, so a concurrent Query sees either the old or the new state.
type Index struct {
	store       Store
	embedder    Embedder
	concurrency int
	log         *logger.Logger
	metrics     *metrics.Metrics

	mu    sync.RWMutex
	ready bool
}

// Option configures an Index.
type Option func(*Index)

// WithConcurrency bounds the number of parallel embedder calls during ingest.
func WithConcurrency(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.concurrency = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(ix *Index) { ix.log = l.Component("index") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(ix *Index) { ix.metrics = m }
}

func New(store Store, embedder Embedder, opts ...Option) *Index {
	ix := &Index{
		store:       store,
		embedder:    embedder,
		concurrency: 4,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Open loads a previously persisted store. When one with content is found the
// index is ready immediately.
func (ix *Index) Open(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	found, err := ix.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndex, err)
	}
	if found {
		ix.ready = true
		ix.log.Info().Int("records", ix.store.Count()).Msg("restored persisted index")
	} else {
		ix.log.Info().Msg("no persisted index found, starting fresh")
	}
	return nil
}

// Ready reports whether at least one ingest or load has succeeded.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// Count returns the number of stored chunks.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.Count()
}

// Ingest embeds chunks and appends them to the store, then persists it.
// An embedder failure aborts before anything is written.
func (ix *Index) Ingest(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return fmt.Errorf("%w: embedding failed: %v", domain.ErrIndex, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.Add(ctx, records); err != nil {
		return fmt.Errorf("%w: store write failed: %v", domain.ErrIndex, err)
	}
	if ix.store.Count() > 0 {
		ix.ready = true
	}

	if err := ix.store.Persist(); err != nil {
		return fmt.Errorf("%w: persist failed: %v", domain.ErrIndex, err)
	}

	ix.log.Debug().Int("chunks", len(records)).Int("total", ix.store.Count()).Msg("chunks committed")
	return nil
}

// embedAll embeds every chunk or fails. A cancelled parent context is a
// failure even when no embedder call returned an error.
func (ix *Index) embedAll(parent context.Context, chunks []chunker.Chunk) ([]Record, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	records := make([]Record, len(chunks))
	sem := make(chan struct{}, ix.concurrency)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i, ch := range chunks {
		wg.Add(1)
		go func(idx int, ch chunker.Chunk) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			vec, err := ix.embedder.Embed(ctx, ch.Text)
			if err != nil {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("chunk %d: %w", ch.Sequence, err)
					cancel()
				})
				return
			}

			records[idx] = Record{
				ID:       ch.ID,
				Text:     ch.Text,
				Metadata: ch.Metadata(),
				Vector:   vec,
			}
		}(i, ch)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Query returns up to k chunks most similar to text, best first.
// A not-ready index yields an empty result rather than an error.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be > 0, got %d", domain.ErrInvalidArgument, k)
	}
	if !ix.Ready() {
		return []Scored{}, nil
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ix.mu.RLock()
	matches, err := ix.store.Query(ctx, vec, k)
	ix.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	ix.metrics.RecordRetrieval()

	scored := make([]Scored, 0, len(matches))
	for _, m := range matches {
		scored = append(scored, Scored{
			Chunk:      chunker.FromMetadata(m.ID, m.Text, m.Metadata),
			Similarity: m.Similarity,
		})
	}
	return scored, nil
}
