package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Run is an interactive console session. Each input line is either a path
// to a file to ingest, a slash command, or a chat message.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer, sessionID string) error {
	fmt.Fprintln(out, "AI tutor ready. Enter a question, a file path to ingest, /status, /clear or /quit.")

	scanner := bufio.NewScanner(in)

	// Pasted passages can be long.
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				return nil
			}
			a.handleLine(ctx, out, line, sessionID)
		}
	}
}

func (a *App) handleLine(ctx context.Context, out io.Writer, line, sessionID string) {
	switch line {
	case "/status":
		b, _ := json.MarshalIndent(a.Status(), "", "  ")
		fmt.Fprintln(out, string(b))
		return
	case "/clear":
		a.ClearSession(sessionID)
		fmt.Fprintln(out, "Session cleared.")
		return
	}

	if info, err := os.Stat(line); err == nil && !info.IsDir() {
		res := a.IngestFile(ctx, line, "")
		if !res.Success {
			fmt.Fprintf(out, "Ingestion failed: %s\n", res.Error)
			return
		}
		fmt.Fprintf(out, "Ingested %s: %d pages, %d chunks\n", line, res.PageCount, res.ChunkCount)
		return
	}

	reply := a.Chat(ctx, line, sessionID, nil)
	fmt.Fprintf(out, "[%s] %s\n", reply.Source, reply.Output)
}
