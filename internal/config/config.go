package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"

	"ai_tutor/internal/domain"
)

type Config struct {
	DataDir      string `env:"DATA_DIR" envDefault:"./data"`
	DBFile       string `env:"DB_FILE"`
	MetadataFile string `env:"METADATA_FILE"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PDFPath      string `env:"PDF_PATH"`

	ChunkSize         int   `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap      int   `env:"CHUNK_OVERLAP" envDefault:"200"`
	RetrieverK        int   `env:"RETRIEVER_K" envDefault:"4"`
	IngestConcurrency int   `env:"INGEST_CONCURRENCY" envDefault:"4"`
	MaxUploadSize     int64 `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`

	EmbedProvider string `env:"EMBED_PROVIDER" envDefault:"ollama"`
	EmbedURL      string `env:"EMBED_URL" envDefault:"http://localhost:11434/api"`
	EmbedKey      string `env:"EMBED_KEY"`
	EmbedModel    string `env:"EMBED_MODEL" envDefault:"nomic-embed-text"`

	LLMURL         string        `env:"LLM_URL" envDefault:"https://openrouter.ai/api/v1"`
	LLMKey         string        `env:"LLM_KEY"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"openai/gpt-4.1-nano"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.5"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"0"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	SearchProvider   string  `env:"SEARCH_PROVIDER" envDefault:"duckduckgo"`
	SearchURL        string  `env:"SEARCH_URL" envDefault:"https://api.duckduckgo.com/"`
	SearchMaxResults int     `env:"SEARCH_MAX_RESULTS" envDefault:"10"`
	SearchRate       float64 `env:"SEARCH_RATE" envDefault:"1"`
	GoogleAPIKey     string  `env:"GOOGLE_API_KEY"`
	GoogleCX         string  `env:"GOOGLE_CX"`

	// RouteMinSimilarity routes unflagged queries to the document when its
	// best passage scores at least this much. 0 leaves only the keywords.
	RouteMinSimilarity float32 `env:"ROUTE_MIN_SIMILARITY" envDefault:"0.5"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"0s"`

	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Init parses the environment into cfg, fills derived paths and validates.
func Init(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	cfg.applyDefaults()
	return cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.DBFile == "" {
		c.DBFile = filepath.Join(c.DataDir, "tutor.gob.gz")
	}
	if c.MetadataFile == "" {
		c.MetadataFile = filepath.Join(c.DataDir, "metadata.json")
	}
}

// Validate rejects parameters the index cannot run with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be > 0", domain.ErrConfiguration)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be >= 0 and < CHUNK_SIZE", domain.ErrConfiguration)
	}
	if c.RetrieverK <= 0 {
		return fmt.Errorf("%w: RETRIEVER_K must be > 0", domain.ErrConfiguration)
	}
	if c.IngestConcurrency <= 0 {
		return fmt.Errorf("%w: INGEST_CONCURRENCY must be > 0", domain.ErrConfiguration)
	}
	if c.RouteMinSimilarity < 0 || c.RouteMinSimilarity > 1 {
		return fmt.Errorf("%w: ROUTE_MIN_SIMILARITY must be within [0, 1]", domain.ErrConfiguration)
	}
	switch c.EmbedProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown EMBED_PROVIDER %q", domain.ErrConfiguration, c.EmbedProvider)
	}
	switch c.SearchProvider {
	case "duckduckgo", "google", "none":
	default:
		return fmt.Errorf("%w: unknown SEARCH_PROVIDER %q", domain.ErrConfiguration, c.SearchProvider)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
