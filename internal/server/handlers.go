package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai_tutor/internal/app"
	"ai_tutor/internal/domain"
	"ai_tutor/internal/ingest"
)

const maxFormMemory = 32 << 20

type errorResponse struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	RAGAvailable bool   `json:"rag_available"`
	ToolsCount   int    `json:"tools_count"`
	ModelName    string `json:"model_name"`
}

type chatRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	UseDocument *bool  `json:"use_document"`
}

type chatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Source    domain.Source  `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type uploadResponse struct {
	Message       string `json:"message"`
	DocumentPath  string `json:"document_path"`
	PagesLoaded   int    `json:"pages_loaded"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
	DocumentID    string `json:"document_id"`
}

type documentInfo struct {
	Available  bool      `json:"available"`
	ID         string    `json:"id"`
	SourceName string    `json:"source_name"`
	Path       string    `json:"path,omitempty"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	IngestedAt time.Time `json:"ingested_at"`
}

type summaryResponse struct {
	Summary       string `json:"summary"`
	Status        string `json:"status"`
	PagesLoaded   int    `json:"pages_loaded"`
	ChunksCreated int    `json:"chunks_created"`
	DocumentID    string `json:"document_id"`
}

type documentQueryRequest struct {
	Query        string `json:"query"`
	SessionID    string `json:"session_id"`
	TeachingMode *bool  `json:"teaching_mode"`
}

type documentQueryResponse struct {
	Response       string         `json:"response"`
	SessionID      string         `json:"session_id"`
	Source         domain.Source  `json:"source"`
	RelevantChunks int            `json:"relevant_chunks"`
	Metadata       map[string]any `json:"metadata"`
}

type learnRequest struct {
	Topic        string `json:"topic"`
	Question     string `json:"question"`
	SessionID    string `json:"session_id"`
	Difficulty   string `json:"difficulty"`
	LearningMode string `json:"learning_mode"`
}

type learnResponse struct {
	Response     string         `json:"response"`
	SessionID    string         `json:"session_id"`
	LearningMode string         `json:"learning_mode"`
	Metadata     map[string]any `json:"metadata"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Detail: detail})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func sessionOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.tutor.Status()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		Version:      Version,
		RAGAvailable: st.RAGAvailable,
		ToolsCount:   st.ToolsCount,
		ModelName:    st.ModelName,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}

	sessionID := sessionOrNew(req.SessionID)
	reply := s.tutor.Chat(r.Context(), req.Message, sessionID, req.UseDocument)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Output,
		SessionID: sessionID,
		Source:    reply.Source,
		Metadata:  map[string]any{"session_id": sessionID},
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	s.tutor.ClearSession(id)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s cleared successfully", id),
	})
}

// parseForm accepts both multipart and url-encoded bodies within the upload
// size limit. It reports false after writing the error response.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadSize))
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
		return false
	}
	return true
}

// savePDF stores an uploaded PDF as UploadDir/<uuid>_<name> and ingests it.
// The stored file is removed when ingestion fails.
func (s *Server) savePDF(r *http.Request, file multipart.File, header *multipart.FileHeader) (domain.IngestResult, string, error) {
	name := filepath.Base(header.Filename)
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return domain.IngestResult{}, "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+"_"+name)

	out, err := os.Create(path)
	if err != nil {
		return domain.IngestResult{}, "", fmt.Errorf("failed to store upload: %w", err)
	}
	_, err = io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.IngestResult{}, "", fmt.Errorf("failed to store upload: %w", err)
	}

	res := s.tutor.IngestFile(r.Context(), path, name)
	if !res.Success {
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove rejected upload")
		}
	}
	return res, path, nil
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !isPDF(header.Filename) {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	res, path, err := s.savePDF(r, file, header)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error uploading document: %v", err))
		return
	}
	if !res.Success {
		writeError(w, http.StatusInternalServerError, "Failed to process document: "+res.Error)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:       "Document uploaded and processed successfully",
		DocumentPath:  path,
		PagesLoaded:   res.PageCount,
		ChunksCreated: res.ChunkCount,
		Status:        "success",
		DocumentID:    res.DocumentID,
	})
}

func (s *Server) handleDocumentInfo(w http.ResponseWriter, _ *http.Request) {
	doc, ok := s.tutor.CurrentDocument()
	if !ok {
		writeError(w, http.StatusNotFound, "No document loaded")
		return
	}
	writeJSON(w, http.StatusOK, documentInfo{
		Available:  true,
		ID:         doc.ID,
		SourceName: doc.SourceName,
		Path:       doc.StoragePath,
		Pages:      doc.PageCount,
		Chunks:     doc.ChunkCount,
		IngestedAt: doc.IngestedAt,
	})
}

// handleSummary ingests an uploaded PDF or a text field, then summarizes
// the index.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	var res domain.IngestResult
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if !isPDF(header.Filename) {
			writeError(w, http.StatusBadRequest, "Only PDF files are supported")
			return
		}
		res, _, err = s.savePDF(r, file, header)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing document: %v", err))
			return
		}
		if !res.Success {
			writeError(w, http.StatusInternalServerError, "Failed to process document: "+res.Error)
			return
		}

	case strings.TrimSpace(r.FormValue("text")) != "":
		text := r.FormValue("text")
		if len([]rune(strings.TrimSpace(text))) < ingest.MinTextLength {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Text content must be at least %d characters", ingest.MinTextLength))
			return
		}
		name := r.FormValue("source_name")
		if name == "" {
			name = "text_input"
		}
		res = s.tutor.IngestText(r.Context(), text, name)
		if !res.Success {
			writeError(w, http.StatusInternalServerError, "Failed to process text: "+res.Error)
			return
		}

	default:
		writeError(w, http.StatusBadRequest, "Either file or text must be provided")
		return
	}

	if !s.tutor.Status().RAGAvailable {
		writeError(w, http.StatusInternalServerError, "Document processed but RAG service is not available")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:       s.tutor.DocumentSummary(r.Context(), r.FormValue("query")),
		Status:        "success",
		PagesLoaded:   res.PageCount,
		ChunksCreated: res.ChunkCount,
		DocumentID:    res.DocumentID,
	})
}

func (s *Server) handleDocumentQuery(w http.ResponseWriter, r *http.Request) {
	var req documentQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusUnprocessableEntity, "query must not be empty")
		return
	}
	teaching := req.TeachingMode == nil || *req.TeachingMode

	sessionID := sessionOrNew(req.SessionID)
	answer, err := s.tutor.QueryDocument(r.Context(), req.Query, sessionID, teaching)
	if errors.Is(err, domain.ErrNoDocument) {
		writeError(w, http.StatusNotFound,
			"No documents available. Please upload a document first using /document/summary")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error querying document: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, documentQueryResponse{
		Response:       answer.Response,
		SessionID:      sessionID,
		Source:         domain.SourceDocument,
		RelevantChunks: answer.RelevantChunks,
		Metadata: map[string]any{
			"teaching_mode": teaching,
			"query":         req.Query,
		},
	})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" && strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusUnprocessableEntity, "topic or question is required")
		return
	}

	sessionID := sessionOrNew(req.SessionID)
	out := s.tutor.Learn(r.Context(), app.LearnRequest{
		Topic:      req.Topic,
		Question:   req.Question,
		Mode:       req.LearningMode,
		Difficulty: req.Difficulty,
		SessionID:  sessionID,
	})

	writeJSON(w, http.StatusOK, learnResponse{
		Response:     out.Output,
		SessionID:    sessionID,
		LearningMode: out.Mode,
		Metadata: map[string]any{
			"difficulty": out.Difficulty,
			"topic":      out.Subject,
			"source":     out.Source,
		},
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}

	sessionID := sessionOrNew(req.SessionID)
	reply := s.tutor.Ask(r.Context(), req.Message, sessionID, req.UseDocument)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Output,
		SessionID: sessionID,
		Source:    reply.Source,
		Metadata: map[string]any{
			"session_id":    sessionID,
			"learning_mode": "ask",
		},
	})
}
