package ingest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"ai_tutor/internal/domain"
)

// Metadata is the on-disk record of ingested documents.
type Metadata struct {
	Current   string                     `json:"current"`
	Documents map[string]domain.Document `json:"documents"`
}

func newMetadata() *Metadata {
	return &Metadata{Documents: make(map[string]domain.Document)}
}

func loadMetadata(path string) (*Metadata, error) {
	md := newMetadata()
	if path == "" {
		return md, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return md, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(md); err != nil {
		return nil, err
	}
	if md.Documents == nil {
		md.Documents = make(map[string]domain.Document)
	}
	return md, nil
}

func saveMetadata(path string, md *Metadata) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}
