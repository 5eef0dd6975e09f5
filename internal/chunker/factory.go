package chunker

// Factory splits documents with a fixed, validated configuration.
type Factory struct {
	config Config
}

// NewFactory validates the configuration and returns a factory.
func NewFactory(config Config) (*Factory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Factory{config: config}, nil
}

// Config returns the splitting parameters.
func (f *Factory) Config() Config {
	return f.config
}

// Chunk prepares content according to its file name and splits it into
// chunks tagged with sourceID. Markdown files are flattened to plain text first.
func (f *Factory) Chunk(content, name, sourceID string) ([]Chunk, error) {
	if IsMarkdown(name) {
		content = NormalizeMarkdown(content)
	}
	return Split(content, f.config.ChunkSize, f.config.Overlap, sourceID)
}
