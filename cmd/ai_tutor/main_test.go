package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("EMBED_PROVIDER", "openai")
	t.Setenv("EMBED_URL", "http://127.0.0.1:1/v1")
	t.Setenv("SEARCH_PROVIDER", "none")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStatusOnEmptyIndex(t *testing.T) {
	offlineEnv(t)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"rag_available": false`)
	assert.Contains(t, out, `"tools_count": 0`)
	assert.NotContains(t, out, `"document"`)
}

func TestIngestRejectsShortText(t *testing.T) {
	dir := offlineEnv(t)
	path := filepath.Join(dir, "tiny.txt")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	_, err := execute(t, "ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 10 characters")
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	dir := offlineEnv(t)
	path := filepath.Join(dir, "slides.pptx")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	_, err := execute(t, "ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestBadConfigFailsFast(t *testing.T) {
	offlineEnv(t)
	t.Setenv("CHUNK_OVERLAP", "5000")

	_, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_OVERLAP")
}
