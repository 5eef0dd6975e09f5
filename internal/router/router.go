// Package router decides which source backs a chat answer, gathers its
// context and asks the language model.
package router

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ai_tutor/internal/domain"
	"ai_tutor/internal/index"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

// Retriever serves document passages.
type Retriever interface {
	Ready() bool
	Query(ctx context.Context, text string, k int) ([]index.Scored, error)
}

// WebSearcher returns a text summary of web results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// LanguageModel completes a single prompt.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// History is the session memory the router reads and appends to.
type History interface {
	Messages(sessionID string, lastN int) []domain.Turn
	AppendTurns(sessionID string, turns ...domain.Turn)
}

// Tools is the set of context collaborators available at one moment.
// A nil field means the tool is absent.
type Tools struct {
	Retriever Retriever
	Search    WebSearcher
}

// Count returns how many tools are present.
func (t Tools) Count() int {
	n := 0
	if t.Retriever != nil {
		n++
	}
	if t.Search != nil {
		n++
	}
	return n
}

func (t Tools) documentReady() bool {
	return t.Retriever != nil && t.Retriever.Ready()
}

// ToolResolver reports which tools are currently available.
type ToolResolver func() Tools

// Router runs one routing decision per chat turn.
type Router struct {
	resolve  ToolResolver
	tools    atomic.Pointer[Tools]
	model    LanguageModel
	history  History
	detector Detector
	k        int

	log     *logger.Logger
	metrics *metrics.Metrics
}

// Option configures a Router.
type Option func(*Router)

// WithDetector replaces the keyword heuristic used for unflagged queries.
func WithDetector(d Detector) Option {
	return func(r *Router) { r.detector = d }
}

// WithTopK sets how many passages document context uses.
func WithTopK(k int) Option {
	return func(r *Router) {
		if k > 0 {
			r.k = k
		}
	}
}

// WithLogger sets the logger, tagged with the router component.
func WithLogger(l *logger.Logger) Option {
	return func(r *Router) { r.log = l.Component("router") }
}

// WithMetrics records chat and collaborator failure metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New builds a Router and resolves its initial tools.
func New(resolve ToolResolver, model LanguageModel, history History, opts ...Option) *Router {
	r := &Router{
		resolve:  resolve,
		model:    model,
		history:  history,
		detector: KeywordDetector{},
		k:        4,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ReloadTools()
	return r
}

// ReloadTools re-resolves the available tools and swaps them in atomically.
// In-flight chats keep the set they started with.
func (r *Router) ReloadTools() {
	tools := r.resolve()
	r.tools.Store(&tools)
	r.log.Info().
		Bool("document", tools.Retriever != nil).
		Bool("search", tools.Search != nil).
		Msg("tools reloaded")
}

func (r *Router) currentTools() Tools {
	if t := r.tools.Load(); t != nil {
		return *t
	}
	return Tools{}
}

// Chat answers message for sessionID. useDocument forces (true) or forbids
// (false) document context; nil lets the detector decide. Failures never
// escape: they come back as a reply with source "error". The user and
// assistant turns are always recorded together.
func (r *Router) Chat(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply {
	start := time.Now()
	tools := r.currentTools()
	history := r.history.Messages(sessionID, HistoryWindow)

	source := r.selectSource(ctx, message, useDocument, tools)

	info, source := r.gather(ctx, message, source, tools)

	prompt := BuildPrompt(history, message, info)

	reply := domain.Reply{Source: source}
	out, err := r.model.Complete(ctx, prompt)
	if err != nil {
		r.log.Error().Err(err).Str("session_id", sessionID).Msg("language model call failed")
		r.metrics.RecordCollaboratorError("llm")
		reply = domain.Reply{
			Output: fmt.Sprintf("I apologize, but I encountered an error: %v", err),
			Source: domain.SourceError,
		}
	} else {
		reply.Output = out
	}

	r.history.AppendTurns(sessionID,
		domain.Turn{Role: domain.RoleUser, Text: message},
		domain.Turn{Role: domain.RoleAssistant, Text: reply.Output},
	)

	dur := time.Since(start)
	r.log.LogChat(sessionID, string(reply.Source), dur)
	r.metrics.RecordChat(string(reply.Source), dur)
	return reply
}

func (r *Router) selectSource(ctx context.Context, query string, useDocument *bool, tools Tools) domain.Source {
	ready := tools.documentReady()

	var wantDocument bool
	if useDocument != nil {
		wantDocument = *useDocument
	} else if ready {
		wantDocument = r.detector.WantsDocument(ctx, query, tools.Retriever)
	}

	switch {
	case wantDocument && ready:
		return domain.SourceDocument
	case tools.Search != nil:
		return domain.SourceWeb
	default:
		return domain.SourceGeneral
	}
}

// gather invokes the selected tool. A failing tool turns the source into
// "error" with a placeholder context so the turn still completes.
func (r *Router) gather(ctx context.Context, query string, source domain.Source, tools Tools) (string, domain.Source) {
	switch source {
	case domain.SourceDocument:
		results, err := tools.Retriever.Query(ctx, query, r.k)
		if err != nil {
			return r.gatherFailed("retriever", err)
		}
		return "Document Information:\n" + RenderExcerpts(results), source
	case domain.SourceWeb:
		text, err := tools.Search.Search(ctx, query)
		if err != nil {
			return r.gatherFailed("search", err)
		}
		return "Web Search Results:\n" + text, source
	default:
		return noTools, domain.SourceGeneral
	}
}

func (r *Router) gatherFailed(tool string, err error) (string, domain.Source) {
	r.log.Error().Err(err).Str("tool", tool).Msg("tool invocation failed")
	r.metrics.RecordCollaboratorError(tool)
	return fmt.Sprintf("Error retrieving information: %v", err), domain.SourceError
}

// Status summarizes the router's current capabilities.
func (r *Router) Status() domain.Status {
	tools := r.currentTools()
	return domain.Status{
		RAGAvailable: tools.documentReady(),
		ToolsCount:   tools.Count(),
		ModelName:    r.model.ModelName(),
	}
}
