// Package ingest turns uploaded bytes or text into queryable index state.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai_tutor/internal/chunker"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/index"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

// MinTextLength is the shortest trimmed text accepted for ingestion.
const MinTextLength = 10

// Indexer is the part of the document index the pipeline writes to.
type Indexer interface {
	Ingest(ctx context.Context, chunks []chunker.Chunk) error
	Ready() bool
}

var _ Indexer = (*index.Index)(nil)

// Pipeline validates, chunks and indexes documents, and remembers which
// document is current.
type Pipeline struct {
	index        Indexer
	chunks       *chunker.Factory
	metadataPath string
	log          *logger.Logger
	metrics      *metrics.Metrics

	mu        sync.RWMutex
	metadata  *Metadata
	listeners []func()
}

type Option func(*Pipeline)

// WithMetadataFile persists document metadata as JSON at path.
func WithMetadataFile(path string) Option {
	return func(p *Pipeline) { p.metadataPath = path }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l.Component("ingest") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(ix Indexer, chunks *chunker.Factory, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:    ix,
		chunks:   chunks,
		log:      logger.Nop(),
		metadata: newMetadata(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnIngest registers fn to run after every successful ingestion.
func (p *Pipeline) OnIngest(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Current returns the metadata of the most recently ingested document.
func (p *Pipeline) Current() (domain.Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, ok := p.metadata.Documents[p.metadata.Current]
	return doc, ok
}

// Document looks up a recorded document by ID.
func (p *Pipeline) Document(id string) (domain.Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, ok := p.metadata.Documents[id]
	return doc, ok
}

// Documents returns every document recorded so far.
func (p *Pipeline) Documents() []domain.Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Document, 0, len(p.metadata.Documents))
	for _, doc := range p.metadata.Documents {
		out = append(out, doc)
	}
	return out
}

// Bootstrap restores document metadata and, when the index holds nothing
// yet, ingests the default source if one is configured and present.
func (p *Pipeline) Bootstrap(ctx context.Context, defaultPath string) error {
	if p.metadataPath != "" {
		md, err := loadMetadata(p.metadataPath)
		if err != nil {
			p.log.Warn().Err(err).Str("path", p.metadataPath).Msg("ignoring unreadable metadata")
			md = newMetadata()
		}
		p.mu.Lock()
		p.metadata = md
		p.mu.Unlock()
	}

	if p.index.Ready() || defaultPath == "" {
		return nil
	}
	if _, err := os.Stat(defaultPath); errors.Is(err, fs.ErrNotExist) {
		p.log.Warn().Str("path", defaultPath).Msg("default document not found")
		return nil
	}

	res := p.FromFile(ctx, defaultPath, "")
	if !res.Success {
		return fmt.Errorf("failed to ingest default document %s: %w", defaultPath, res.Err)
	}
	return nil
}

// FromBytes ingests a PDF.
func (p *Pipeline) FromBytes(ctx context.Context, data []byte, sourceName string) domain.IngestResult {
	return p.fromPDF(ctx, data, sourceName, "")
}

// FromText ingests plain text as a single page.
func (p *Pipeline) FromText(ctx context.Context, text, sourceName string) domain.IngestResult {
	return p.fromText(ctx, text, sourceName, "")
}

func (p *Pipeline) fromText(ctx context.Context, text, sourceName, path string) domain.IngestResult {
	start := time.Now()
	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		err := fmt.Errorf("%w: Text content must be at least %d characters", domain.ErrValidation, MinTextLength)
		return p.fail(sourceName, start, err)
	}
	return p.ingest(ctx, text, sourceName, 1, path, start)
}

// FromFile ingests a file from disk, choosing the reader by extension.
// An empty name defaults to the file's base name.
func (p *Pipeline) FromFile(ctx context.Context, path, name string) domain.IngestResult {
	start := time.Now()
	if name == "" {
		name = filepath.Base(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p.fail(name, start, fmt.Errorf("failed to read file: %w", err))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.fromPDF(ctx, data, name, path)
	case ".txt", ".md", ".markdown":
		return p.fromText(ctx, string(data), name, path)
	default:
		return p.fail(name, start, fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, filepath.Ext(path)))
	}
}

func (p *Pipeline) fromPDF(ctx context.Context, data []byte, sourceName, path string) domain.IngestResult {
	start := time.Now()
	text, pages, err := extractPDF(data)
	if err != nil {
		return p.fail(sourceName, start, err)
	}
	return p.ingest(ctx, text, sourceName, pages, path, start)
}

func (p *Pipeline) ingest(ctx context.Context, text, sourceName string, pages int, path string, start time.Time) domain.IngestResult {
	docID := uuid.NewString()

	chunks, err := p.chunks.Chunk(text, sourceName, docID)
	if err != nil {
		return p.fail(sourceName, start, err)
	}
	if len(chunks) == 0 {
		return p.fail(sourceName, start, fmt.Errorf("%w: document produced no chunks", domain.ErrValidation))
	}

	if err := p.index.Ingest(ctx, chunks); err != nil {
		return p.fail(sourceName, start, err)
	}

	doc := domain.Document{
		ID:          docID,
		SourceName:  sourceName,
		PageCount:   pages,
		ChunkCount:  len(chunks),
		StoragePath: path,
		IngestedAt:  time.Now().UTC(),
	}

	p.mu.Lock()
	p.metadata.Documents[doc.ID] = doc
	p.metadata.Current = doc.ID
	err = saveMetadata(p.metadataPath, p.metadata)
	listeners := append([]func(){}, p.listeners...)
	p.mu.Unlock()
	if err != nil {
		// The chunks are already indexed; only the bookkeeping file is stale.
		p.log.Warn().Err(err).Str("path", p.metadataPath).Msg("failed to save metadata")
	}

	for _, fn := range listeners {
		fn()
	}

	dur := time.Since(start)
	p.log.LogIngest(sourceName, pages, len(chunks), dur, nil)
	p.metrics.RecordIngest(true, len(chunks), dur)

	return domain.IngestResult{
		Success:    true,
		DocumentID: doc.ID,
		PageCount:  pages,
		ChunkCount: len(chunks),
		Path:       path,
	}
}

func (p *Pipeline) fail(sourceName string, start time.Time, err error) domain.IngestResult {
	dur := time.Since(start)
	p.log.LogIngest(sourceName, 0, 0, dur, err)
	p.metrics.RecordIngest(false, 0, dur)
	return domain.IngestResult{
		Success: false,
		Error:   err.Error(),
		Err:     err,
	}
}
