package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// Record is one vector with its text and metadata, ready to be stored.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
	Vector   []float32
}

// Match is a stored record ranked against a query vector.
type Match struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Store is the minimal vector store contract the index needs.
type Store interface {
	Add(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Count() int
	Persist() error
	// Load restores persisted state. It reports whether anything was found.
	Load() (bool, error)
}

const collectionName = "docs"

// ChromemStore keeps vectors in a single chromem collection that is exported
// to one gob file.
type ChromemStore struct {
	db    *chromem.DB
	path  string
	embed chromem.EmbeddingFunc
}

// NewChromemStore creates a store persisted at path. An empty path keeps
// everything in memory.
func NewChromemStore(path string) *ChromemStore {
	return &ChromemStore{
		db:    chromem.NewDB(),
		path:  path,
		embed: precomputed,
	}
}

// precomputed guards the collection: records always arrive with a vector.
func precomputed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embeddings must be computed before adding records")
}

func (s *ChromemStore) collection() (*chromem.Collection, error) {
	return s.db.GetOrCreateCollection(collectionName, nil, s.embed)
}

func (s *ChromemStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	coll, err := s.collection()
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Metadata:  r.Metadata,
			Embedding: r.Vector,
		})
	}
	return coll.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	coll := s.db.GetCollection(collectionName, s.embed)
	if coll == nil || coll.Count() == 0 {
		return nil, nil
	}
	if n := coll.Count(); k > n {
		k = n
	}

	results, err := coll.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

func (s *ChromemStore) Count() int {
	coll := s.db.GetCollection(collectionName, s.embed)
	if coll == nil {
		return 0
	}
	return coll.Count()
}

func (s *ChromemStore) Persist() error {
	if s.path == "" {
		return nil
	}
	if _, err := s.collection(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return s.db.ExportToFile(s.path, true, "", collectionName)
}

func (s *ChromemStore) Load() (bool, error) {
	if s.path == "" {
		return false, nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if err := s.db.ImportFromFile(s.path, "", collectionName); err != nil {
		return false, fmt.Errorf("failed to import store: %w", err)
	}
	return s.Count() > 0, nil
}
