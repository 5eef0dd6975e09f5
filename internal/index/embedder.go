package index

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"ai_tutor/internal/domain"
)

// Embedder turns text into a fixed-length vector. It must be deterministic
// for a given model configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a chromem embedding function to Embedder.
type EmbedderFunc chromem.EmbeddingFunc

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// NewEmbedder builds the remote embedder for the configured provider.
// Supported providers are "ollama" and "openai" (any OpenAI-compatible API).
func NewEmbedder(provider, baseURL, apiKey, model string) (Embedder, error) {
	switch provider {
	case "ollama":
		return EmbedderFunc(chromem.NewEmbeddingFuncOllama(model, baseURL)), nil
	case "openai":
		return EmbedderFunc(chromem.NewEmbeddingFuncOpenAICompat(baseURL, apiKey, model, nil)), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, provider)
	}
}
