// Package logger provides structured logging for the tutor service
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with tutor-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // console output for development
	Output io.Writer
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "ai_tutor").
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// Component returns a child logger tagged with a component name
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zlog.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zlog.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// LogIngest logs the outcome of an ingestion
func (l *Logger) LogIngest(source string, pages, chunks int, duration time.Duration, err error) {
	if err != nil {
		l.zlog.Error().
			Str("event", "ingest").
			Str("source", source).
			Dur("duration_ms", duration).
			Err(err).
			Msg("ingestion failed")
		return
	}
	l.zlog.Info().
		Str("event", "ingest").
		Str("source", source).
		Int("pages", pages).
		Int("chunks", chunks).
		Dur("duration_ms", duration).
		Msg("document ingested")
}

// LogChat logs a completed chat turn
func (l *Logger) LogChat(sessionID, source string, duration time.Duration) {
	l.zlog.Info().
		Str("event", "chat").
		Str("session_id", sessionID).
		Str("source", source).
		Dur("duration_ms", duration).
		Msg("chat turn completed")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(addr, dataDir string) {
	l.zlog.Info().
		Str("event", "server_start").
		Str("addr", addr).
		Str("data_dir", dataDir).
		Msg("tutor API starting")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("tutor API shutting down")
}

// LogHTTPRequest logs a completed HTTP request. Server errors log at error level.
func (l *Logger) LogHTTPRequest(method, route string, status int, duration time.Duration) {
	event := l.zlog.Info()
	if status >= 500 {
		event = l.zlog.Error()
	}
	event.
		Str("event", "http_request").
		Str("method", method).
		Str("route", route).
		Int("status", status).
		Dur("duration_ms", duration).
		Msg("request completed")
}
