// Package server exposes the tutor over HTTP with JSON bodies.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai_tutor/internal/app"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

// Version is reported by /health.
const Version = "1.0.0"

// Tutor is the service the handlers drive.
type Tutor interface {
	Chat(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply
	Ask(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply
	Learn(ctx context.Context, req app.LearnRequest) app.LearnReply
	ClearSession(sessionID string)
	Status() domain.Status

	IngestFile(ctx context.Context, path, name string) domain.IngestResult
	IngestText(ctx context.Context, text, sourceName string) domain.IngestResult
	CurrentDocument() (domain.Document, bool)
	DocumentSummary(ctx context.Context, query string) string
	QueryDocument(ctx context.Context, query, sessionID string, teaching bool) (app.DocumentAnswer, error)
}

var _ Tutor = (*app.App)(nil)

type Config struct {
	Addr          string
	UploadDir     string
	MaxUploadSize int64

	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	tutor   Tutor
	cfg     Config
	log     *logger.Logger
	metrics *metrics.Metrics
	server  *http.Server
}

func New(tutor Tutor, cfg Config, log *logger.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 << 20
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}

	s := &Server{
		tutor:   tutor,
		cfg:     cfg,
		log:     log.Component("http"),
		metrics: m,
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the logging, metrics and
// recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("DELETE /chat/{session_id}", s.handleClearSession)

	mux.HandleFunc("POST /document/upload", s.handleUpload)
	mux.HandleFunc("GET /document/info", s.handleDocumentInfo)
	mux.HandleFunc("POST /document/summary", s.handleSummary)
	mux.HandleFunc("POST /document/query", s.handleDocumentQuery)

	mux.HandleFunc("POST /learn", s.handleLearn)
	mux.HandleFunc("POST /learn/ask", s.handleAsk)

	if s.cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return s.observe(s.recoverer(mux))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
