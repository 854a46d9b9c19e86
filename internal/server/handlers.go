package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/docid"
	"github.com/hyperjump/docrag/internal/models"
	"github.com/hyperjump/docrag/internal/storage"
	"github.com/hyperjump/docrag/pkg/utils"
)

// maxFormMemory is the part of a multipart form kept in memory; the rest
// spills to temp files.
const maxFormMemory = 32 << 20

type errorBody struct {
	Detail string `json:"detail"`
}

type addResponse struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	Chunks  int    `json:"chunks"`
}

type deleteResponse struct {
	Message string `json:"message"`
	Deleted string `json:"deleted"`
}

type listResponse struct {
	Total     int                `json:"total"`
	Documents []*models.Document `json:"documents"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "RAG Chatbot API",
		"endpoints": map[string]string{
			"rag": "/rag",
			"bot": "/bot",
		},
	})
}

func (s *Server) handleRAGRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "RAG API Running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	st := s.config.Storage
	resp := map[string]interface{}{
		"documents":         stats.Documents,
		"chunks":            stats.Chunks,
		"vector_index_size": stats.VectorSize,
		"dirty":             s.engine.Dirty(),
		"config": map[string]interface{}{
			"embedding_dimensions": stats.Dimensions,
			"embedding_model":      s.config.Embedding.Model,
			"chunk_size":           s.config.Chunking.Size,
			"chunk_overlap":        s.config.Chunking.Overlap,
			"metadata_backend":     st.MetadataBackend,
			"index_path":           st.IndexPath,
			"metadata_path":        st.MetadataLocation(),
		},
	}
	if usage, err := storage.MeasureDisk(st.IndexPath, st.MetadataLocation(), st.UploadDir); err == nil {
		resp["disk_usage_bytes"] = usage.Total()
		resp["disk_usage"] = usage
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Server.MaxUploadMB << 20
	if limit > 0 {
		if r.ContentLength > limit {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.config.Server.MaxUploadMB))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.config.Server.MaxUploadMB))
			return
		}
		s.respondError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename, ok := uploadName(header.Filename)
	if !ok || strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		s.respondError(w, http.StatusBadRequest, "Only PDF files allowed")
		return
	}
	id := strings.TrimSpace(r.FormValue("doc_id"))
	if id != "" {
		if err := docid.Validate(id); err != nil {
			s.respondErr(w, r, err)
			return
		}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	s.metrics.uploadBytes.Observe(float64(len(content)))
	s.logger.Debug("add document request",
		zap.String("doc_id", id),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)))

	if err := s.saveUpload(filename, content); err != nil {
		s.respondErr(w, r, err)
		return
	}
	text, err := s.extractor.ExtractBytes(content, ".pdf")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	result, err := s.engine.AddDocument(r.Context(), &models.DocumentInput{
		ID:       id,
		Filename: filename,
		Content:  text,
	})
	if err != nil {
		if result != nil {
			s.logger.Error("document indexed but not saved", zap.String("doc_id", result.DocID))
		}
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, addResponse{
		Message: "Document added",
		DocID:   result.DocID,
		Chunks:  result.ChunkCount,
	})
}

// saveUpload keeps a copy of the uploaded file under the upload directory.
func (s *Server) saveUpload(filename string, content []byte) error {
	dir := s.config.Storage.UploadDir
	if dir == "" {
		return nil
	}
	return utils.WriteFileAtomic(filepath.Join(dir, filename), 0644, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// uploadName reduces a client-supplied filename to its base name.
func uploadName(name string) (string, bool) {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", false
	}
	return name, true
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doc_id")
	s.logger.Debug("delete document request", zap.String("doc_id", id))
	if _, err := s.engine.DeleteDocument(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleteResponse{Message: "Document deleted", Deleted: id})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.engine.ListDocuments(r.Context())
	respondJSON(w, http.StatusOK, listResponse{Total: len(docs), Documents: docs})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r, "query", "top_k")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	topK := s.config.Search.DefaultTopK
	if v := strings.TrimSpace(fields["top_k"]); v != "" {
		topK, err = parseTopK(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "top_k must be an integer")
			return
		}
	}
	s.logger.Debug("search request", zap.String("query", fields["query"]), zap.Int("top_k", topK))
	response, err := s.engine.Search(r.Context(), fields["query"], topK)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r, "query", "session_id")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.logger.Debug("ask request",
		zap.String("query", fields["query"]),
		zap.String("session_id", fields["session_id"]))
	ans, err := s.tool.Answer(r.Context(), fields["query"])
	if err != nil {
		s.metrics.answersTotal.WithLabelValues("error").Inc()
		s.respondErr(w, r, err)
		return
	}
	s.metrics.answersTotal.WithLabelValues("ok").Inc()
	respondJSON(w, http.StatusOK, ans)
}

// readFields reads the named fields from a JSON body or from form values.
// Missing fields are returned as empty strings.
func readFields(r *http.Request, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]interface{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", models.ErrInvalidInput)
		}
		for _, name := range names {
			switch v := body[name].(type) {
			case nil:
			case json.Number:
				out[name] = v.String()
			default:
				out[name] = fmt.Sprint(v)
			}
		}
		return out, nil
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form body: %w", models.ErrInvalidInput)
	}
	for _, name := range names {
		out[name] = r.FormValue(name)
	}
	return out, nil
}

// parseTopK reads a top_k value. Integral values written in exponent or
// decimal form are accepted, and values beyond the int range saturate so
// the engine clamps them to the index size.
func parseTopK(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	switch {
	case math.IsNaN(f) || f != math.Trunc(f):
		return 0, fmt.Errorf("top_k %q is not an integer", v)
	case f >= math.MaxInt32:
		return math.MaxInt32, nil
	case f <= math.MinInt32:
		return math.MinInt32, nil
	}
	return int(f), nil
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmbedding), errors.Is(err, models.ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Detail: message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
