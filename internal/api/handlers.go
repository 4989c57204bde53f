// Package api provides the HTTP surface for uploading documents and asking questions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/parser"
)

// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// DefaultCMSSource labels imported content that arrives without a source.
const DefaultCMSSource = "CMS"

// Ingester writes documents into the index.
type Ingester interface {
	IngestFile(ctx context.Context, filename string, data []byte, source string) (int, error)
	IngestText(ctx context.Context, text, source string) (int, error)
}

// Asker answers questions from the index.
type Asker interface {
	Answer(ctx context.Context, question string, topK int) (*indexer.Answer, error)
}

// Options holds the HTTP surface dependencies.
type Options struct {
	Ingester Ingester
	Asker    Asker
	Health   HealthChecker
	// MCP is mounted at /mcp when set.
	MCP            http.Handler
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type handler struct {
	ingester       Ingester
	asker          Asker
	maxUploadBytes int64
	logger         *slog.Logger
}

// IngestResponse is returned by /upload and /import_cms.
type IngestResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// AskRequest is the /ask request body.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// AskResponse is the /ask response body. Sources is empty, not null, when nothing matched.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// answerError is the /ask error body; the answer field carries the message.
type answerError struct {
	Answer string `json:"answer"`
}

// NewMux registers every endpoint on a new ServeMux.
func NewMux(opts Options) *http.ServeMux {
	h := &handler{
		ingester:       opts.Ingester,
		asker:          opts.Asker,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         opts.Logger,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = DefaultMaxUploadBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.upload)
	mux.HandleFunc("POST /ask", h.ask)
	mux.HandleFunc("POST /import_cms", h.importCMS)
	mux.HandleFunc("GET /health", NewHealthHandler(opts.Health))
	mux.HandleFunc("/", NewLandingHandler())
	if opts.MCP != nil {
		mux.Handle("/mcp", opts.MCP)
	}
	return mux
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, messageResponse{"File too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, messageResponse{"No file provided."})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{"No file provided."})
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !parser.Supported(name) {
		writeJSON(w, http.StatusBadRequest, messageResponse{"Invalid file type"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{"Upload failed: " + err.Error()})
		return
	}

	chunks, err := h.ingester.IngestFile(r.Context(), name, data, name)
	if err != nil {
		h.logger.Error("Upload failed", "source", name, "error", err)
		writeJSON(w, statusFor(err), messageResponse{"Upload failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message: "Uploaded " + name,
		Chunks:  chunks,
	})
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.maxUploadBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, answerError{"Invalid request body."})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, answerError{"No question provided."})
		return
	}
	if req.TopK < 0 {
		writeJSON(w, http.StatusBadRequest, answerError{"top_k must be positive."})
		return
	}

	answer, err := h.asker.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		h.logger.Error("Ask failed", "error", err)
		writeJSON(w, statusFor(err), answerError{"Error: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:  answer.Text,
		Sources: answer.Sources,
	})
}

func (h *handler) importCMS(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := parseForm(r, h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{"Invalid form: " + err.Error()})
		return
	}

	if _, ok := r.Form["content"]; !ok {
		writeJSON(w, http.StatusBadRequest, messageResponse{"No content provided."})
		return
	}
	content := r.FormValue("content")
	source := strings.TrimSpace(r.FormValue("source"))
	if source == "" {
		source = DefaultCMSSource
	}

	chunks, err := h.ingester.IngestText(r.Context(), content, source)
	if err != nil {
		h.logger.Error("CMS import failed", "source", source, "error", err)
		writeJSON(w, statusFor(err), messageResponse{"Import failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message: "Imported CMS content: " + source,
		Chunks:  chunks,
	})
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// statusFor maps pipeline error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, indexer.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, indexer.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrEmbedding):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
