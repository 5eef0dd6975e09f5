package domain

import "errors"

// Error taxonomy shared by the tutor services.
// Callers match with errors.Is; concrete errors wrap one of these.
var (
	// ErrValidation indicates bad input shape or size (4xx-equivalent).
	ErrValidation = errors.New("validation error")

	// ErrConfiguration indicates invalid chunker or index parameters.
	// Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrIndex indicates an embedder or vector store failure during ingest.
	ErrIndex = errors.New("index error")

	// ErrInvalidArgument indicates an out-of-range argument such as k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCollaborator indicates a web search or language model failure.
	ErrCollaborator = errors.New("collaborator error")

	// ErrNoDocument indicates no document has been ingested yet.
	ErrNoDocument = errors.New("no document loaded")
)
