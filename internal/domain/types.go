// Package domain holds the types shared between the tutor services and the
// transport layer.
package domain

import "time"

// Source is the information source that backed a chat answer.
type Source string

const (
	SourceDocument Source = "document"
	SourceWeb      Source = "web"
	SourceGeneral  Source = "general"
	SourceError    Source = "error"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session.
type Turn struct {
	Role Role
	Text string
}

// Label renders the role the way it appears in prompts.
func (t Turn) Label() string {
	if t.Role == RoleUser {
		return "Human"
	}
	return "Assistant"
}

// Document describes one ingested corpus item.
type Document struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"source_name"`
	PageCount   int       `json:"page_count"`
	ChunkCount  int       `json:"chunk_count"`
	StoragePath string    `json:"storage_path"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// IngestResult reports the outcome of an ingestion. No error crosses the
// ingestion boundary; failures are reported through Success and Error.
type IngestResult struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	PageCount  int    `json:"pages"`
	ChunkCount int    `json:"chunks"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`

	// Err keeps the typed cause for callers that need errors.Is.
	Err error `json:"-"`
}

// Reply is the outcome of a chat turn.
type Reply struct {
	Output string `json:"output"`
	Source Source `json:"source"`
}

// Status summarizes the tutor's available capabilities.
type Status struct {
	RAGAvailable bool   `json:"rag_available"`
	ToolsCount   int    `json:"tools_count"`
	ModelName    string `json:"model_name"`
}
