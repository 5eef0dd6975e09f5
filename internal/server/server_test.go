package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_tutor/internal/app"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/logger"
	"ai_tutor/internal/metrics"
)

type fakeTutor struct {
	mu sync.Mutex

	status    domain.Status
	doc       *domain.Document
	ingestErr string
	panicOn   string

	chats      []string
	useDoc     []*bool
	cleared    []string
	learned    []app.LearnRequest
	ingested   []string
	storedSeen bool
	queryErr   error
}

func (f *fakeTutor) Chat(_ context.Context, message, sessionID string, useDocument *bool) domain.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message == f.panicOn {
		panic("boom")
	}
	f.chats = append(f.chats, sessionID)
	f.useDoc = append(f.useDoc, useDocument)
	return domain.Reply{Output: "answer to " + message, Source: domain.SourceGeneral}
}

func (f *fakeTutor) Ask(ctx context.Context, message, sessionID string, useDocument *bool) domain.Reply {
	if useDocument == nil {
		yes := true
		useDocument = &yes
	}
	reply := f.Chat(ctx, message, sessionID, useDocument)
	reply.Source = domain.SourceDocument
	return reply
}

func (f *fakeTutor) Learn(_ context.Context, req app.LearnRequest) app.LearnReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.learned = append(f.learned, req)
	return app.LearnReply{
		Reply:      domain.Reply{Output: "lesson", Source: domain.SourceGeneral},
		Mode:       "quiz",
		Difficulty: "medium",
		Subject:    req.Topic,
	}
}

func (f *fakeTutor) ClearSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
}

func (f *fakeTutor) Status() domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeTutor) IngestFile(_ context.Context, path, name string) domain.IngestResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := os.Stat(path)
	f.storedSeen = err == nil
	f.ingested = append(f.ingested, name)
	if f.ingestErr != "" {
		return domain.IngestResult{Success: false, Error: f.ingestErr}
	}
	f.status.RAGAvailable = true
	return domain.IngestResult{Success: true, DocumentID: "doc-1", PageCount: 2, ChunkCount: 5, Path: path}
}

func (f *fakeTutor) IngestText(_ context.Context, text, name string) domain.IngestResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingested = append(f.ingested, name)
	f.status.RAGAvailable = true
	return domain.IngestResult{Success: true, DocumentID: "doc-2", PageCount: 1, ChunkCount: 1}
}

func (f *fakeTutor) CurrentDocument() (domain.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return domain.Document{}, false
	}
	return *f.doc, true
}

func (f *fakeTutor) DocumentSummary(_ context.Context, query string) string {
	return "summary:" + query
}

func (f *fakeTutor) QueryDocument(_ context.Context, query, sessionID string, teaching bool) (app.DocumentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return app.DocumentAnswer{}, f.queryErr
	}
	return app.DocumentAnswer{Response: fmt.Sprintf("%s/%v", query, teaching), RelevantChunks: 3}, nil
}

// locked runs fn while holding the fake's lock, so tests can read and set
// fields the handlers touch.
func (f *fakeTutor) locked(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func newTestServer(t *testing.T, tutor *fakeTutor) (*httptest.Server, *prometheus.Registry, string) {
	t.Helper()
	reg := prometheus.NewRegistry()
	uploads := t.TempDir()
	s := New(tutor, Config{UploadDir: uploads, MaxUploadSize: 1 << 20, Gatherer: reg}, logger.Nop(), metrics.New(reg))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, reg, uploads
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	tutor := &fakeTutor{status: domain.Status{RAGAvailable: true, ToolsCount: 2, ModelName: "m"}}
	srv, _, _ := newTestServer(t, tutor)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body := decode(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, true, body["rag_available"])
	assert.EqualValues(t, 2, body["tools_count"])
	assert.Equal(t, "m", body["model_name"])
}

func TestChat(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	resp, body := postJSON(t, srv.URL+"/chat", map[string]any{"message": "hello", "use_document": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "answer to hello", body["response"])
	assert.Equal(t, "general", body["source"])
	assert.NotEmpty(t, body["session_id"])

	_, body = postJSON(t, srv.URL+"/chat", map[string]any{"message": "again", "session_id": "abc"})
	assert.Equal(t, "abc", body["session_id"])

	tutor.locked(func() {
		require.Len(t, tutor.useDoc, 2)
		require.NotNil(t, tutor.useDoc[0])
		assert.False(t, *tutor.useDoc[0])
		assert.Nil(t, tutor.useDoc[1])
	})

	resp, body = postJSON(t, srv.URL+"/chat", map[string]any{"message": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "message must not be empty", body["detail"])
}

func TestClearSession(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/chat/s-42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decode(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Session s-42 cleared successfully", body["message"])
	tutor.locked(func() { assert.Equal(t, []string{"s-42"}, tutor.cleared) })
}

func TestUploadStoresAndIngestsPDF(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, uploads := newTestServer(t, tutor)

	buf, ctype := multipartBody(t, "lecture.pdf", []byte("%PDF-1.4 fake"), nil)
	resp, err := http.Post(srv.URL+"/document/upload", ctype, buf)
	require.NoError(t, err)
	body := decode(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["pages_loaded"])
	assert.EqualValues(t, 5, body["chunks_created"])
	assert.Equal(t, "doc-1", body["document_id"])
	tutor.locked(func() {
		assert.True(t, tutor.storedSeen)
		assert.Equal(t, []string{"lecture.pdf"}, tutor.ingested)
	})

	path := body["document_path"].(string)
	assert.Equal(t, uploads, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_lecture.pdf"))
	assert.FileExists(t, path)
}

func TestUploadRejections(t *testing.T) {
	tutor := &fakeTutor{ingestErr: "PDF has no extractable text"}
	srv, _, uploads := newTestServer(t, tutor)

	buf, ctype := multipartBody(t, "notes.docx", []byte("x"), nil)
	resp, err := http.Post(srv.URL+"/document/upload", ctype, buf)
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF files are supported", body["detail"])

	buf, ctype = multipartBody(t, "scan.pdf", []byte("%PDF-1.4"), nil)
	resp, err = http.Post(srv.URL+"/document/upload", ctype, buf)
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["detail"], "PDF has no extractable text")
	tutor.locked(func() { assert.True(t, tutor.storedSeen) })

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadTooLarge(t *testing.T) {
	s := New(&fakeTutor{}, Config{UploadDir: t.TempDir(), MaxUploadSize: 1 << 10}, logger.Nop(), nil)

	big, ctype := multipartBody(t, "huge.pdf", bytes.Repeat([]byte("a"), 4<<10), nil)
	req := httptest.NewRequest(http.MethodPost, "/document/upload", big)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDocumentInfo(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	resp, err := http.Get(srv.URL + "/document/info")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No document loaded", body["detail"])

	tutor.locked(func() {
		tutor.doc = &domain.Document{ID: "d1", SourceName: "bio101", PageCount: 1, ChunkCount: 3}
	})
	resp, err = http.Get(srv.URL + "/document/info")
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, "bio101", body["source_name"])
	assert.EqualValues(t, 3, body["chunks"])
}

func TestSummaryFromText(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	form := url.Values{"text": {"Photosynthesis converts light into energy."}, "query": {"light"}}
	resp, err := http.PostForm(srv.URL+"/document/summary", form)
	require.NoError(t, err)
	body := decode(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "summary:light", body["summary"])
	assert.Equal(t, "doc-2", body["document_id"])
	tutor.locked(func() { assert.Equal(t, []string{"text_input"}, tutor.ingested) })

	resp, err = http.PostForm(srv.URL+"/document/summary", url.Values{"text": {"short"}})
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Text content must be at least 10 characters", body["detail"])

	resp, err = http.PostForm(srv.URL+"/document/summary", url.Values{})
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Either file or text must be provided", body["detail"])
}

func TestSummaryFromUpload(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	buf, ctype := multipartBody(t, "lecture.pdf", []byte("%PDF-1.4"), map[string]string{"query": "cells"})
	resp, err := http.Post(srv.URL+"/document/summary", ctype, buf)
	require.NoError(t, err)
	body := decode(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "summary:cells", body["summary"])
	assert.EqualValues(t, 2, body["pages_loaded"])
}

func TestDocumentQuery(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	resp, body := postJSON(t, srv.URL+"/document/query", map[string]any{"query": "what is ATP?"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "what is ATP?/true", body["response"])
	assert.Equal(t, "document", body["source"])
	assert.EqualValues(t, 3, body["relevant_chunks"])

	_, body = postJSON(t, srv.URL+"/document/query", map[string]any{"query": "q", "teaching_mode": false})
	assert.Equal(t, "q/false", body["response"])

	tutor.locked(func() { tutor.queryErr = domain.ErrNoDocument })
	resp, _ = postJSON(t, srv.URL+"/document/query", map[string]any{"query": "q"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	tutor.locked(func() { tutor.queryErr = errors.New("broken") })
	resp, _ = postJSON(t, srv.URL+"/document/query", map[string]any{"query": "q"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestLearnAndAsk(t *testing.T) {
	tutor := &fakeTutor{}
	srv, _, _ := newTestServer(t, tutor)

	resp, body := postJSON(t, srv.URL+"/learn", map[string]any{"topic": "cells", "learning_mode": "quiz", "session_id": "L"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lesson", body["response"])
	assert.Equal(t, "quiz", body["learning_mode"])
	assert.Equal(t, "L", body["session_id"])
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "cells", meta["topic"])
	assert.Equal(t, "general", meta["source"])
	tutor.locked(func() {
		require.Len(t, tutor.learned, 1)
		assert.Equal(t, "quiz", tutor.learned[0].Mode)
	})

	resp, _ = postJSON(t, srv.URL+"/learn", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = postJSON(t, srv.URL+"/learn/ask", map[string]any{"message": "explain osmosis"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "document", body["source"])
	assert.Equal(t, "ask", body["metadata"].(map[string]any)["learning_mode"])
	tutor.locked(func() {
		last := tutor.useDoc[len(tutor.useDoc)-1]
		require.NotNil(t, last)
		assert.True(t, *last)
	})
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	tutor := &fakeTutor{panicOn: "explode"}
	srv, reg, _ := newTestServer(t, tutor)

	resp, body := postJSON(t, srv.URL+"/chat", map[string]any{"message": "explode"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body["error"])

	m, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range m {
		if mf.GetName() == "tutor_http_requests_total" {
			found = true
		}
	}
	assert.True(t, found)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(&fakeTutor{}, Config{Gatherer: reg}, logger.Nop(), m)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chat/xyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("DELETE /chat/{session_id}", "200")))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("unmatched", "404")))
}
