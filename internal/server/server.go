// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schemasmith/schemasmith/internal/artifact"
	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/enrich"
	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/logger"
	"github.com/schemasmith/schemasmith/internal/parser"
	"github.com/schemasmith/schemasmith/internal/pipeline"
)

// maxRequestBytes caps the request body, slightly above the parser input cap
// to leave room for the JSON envelope.
const maxRequestBytes = 5 << 20

// Handler serves the schema generation API.
type Handler struct {
	log   *logger.Logger
	store artifact.Store // optional, nil disables ?store=1
}

// NewRouter builds the chi router. store may be nil.
func NewRouter(log *logger.Logger, store artifact.Store) http.Handler {
	h := &Handler{log: log, store: store}
	r := chi.NewRouter()

	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/schema/generate", h.handleGenerate)
	})

	return r
}

// generateRequest is the request body for POST /api/v1/schema/generate.
type generateRequest struct {
	InputData  string `json:"input_data"`
	InputType  string `json:"input_type"`
	TargetDB   string `json:"target_db"`
	SourceName string `json:"source_name"`
	Format     string `json:"format"`
}

type diagnosticDTO struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
}

type generateResponse struct {
	RequestID   string          `json:"request_id"`
	OutputDDL   string          `json:"output_ddl,omitempty"`
	Diagnostics []diagnosticDTO `json:"diagnostics"`
	ArtifactURL string          `json:"artifact_url,omitempty"`
	Message     string          `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, errs.Wrap(errs.KindInvalidInput, "decoding request body", err))
		return
	}

	inputType, ok := parser.ParseInputType(req.InputType)
	if !ok {
		h.writeError(w, errs.Newf(errs.KindInvalidInput, "unknown input type %q", req.InputType))
		return
	}
	target, ok := dialect.Parse(req.TargetDB)
	if !ok {
		h.writeError(w, errs.Newf(errs.KindInvalidInput, "unknown target database %q", req.TargetDB))
		return
	}
	format := pipeline.FormatDDL
	if req.Format != "" {
		format = pipeline.OutputFormat(strings.ToLower(req.Format))
	}

	preq := pipeline.Request{
		Sources: []pipeline.Source{{
			Input: req.InputData,
			Type:  inputType,
			Hints: parser.Hints{SourceName: req.SourceName},
		}},
		TargetDialect: target,
		Format:        format,
	}
	preq.EnrichConfig = enrich.DefaultConfig()

	res, err := pipeline.Generate(h.log.WithContext(r.Context()), preq)
	if err != nil {
		if res != nil && errs.IsValidation(err) {
			// Validation failures still return the diagnostic list.
			writeJSON(w, http.StatusUnprocessableEntity, h.response(res, "schema has blocking validation errors"))
			return
		}
		h.writeError(w, err)
		return
	}

	resp := h.response(res, "schema generated")
	if h.store != nil && r.URL.Query().Get("store") == "1" {
		url, err := h.storeArtifact(r.Context(), res, target, format)
		if err != nil {
			h.log.ErrorWith("storing artifact", err, map[string]any{"request_id": res.RequestID})
		} else {
			resp.ArtifactURL = url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) response(res *pipeline.Result, msg string) generateResponse {
	out := generateResponse{
		RequestID:   res.RequestID,
		OutputDDL:   res.Output,
		Diagnostics: make([]diagnosticDTO, 0, len(res.Diagnostics)),
		Message:     msg,
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticDTO{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Table:    d.Location.Table,
			Column:   d.Location.Column,
			Message:  d.Message,
		})
	}
	return out
}

func (h *Handler) storeArtifact(ctx context.Context, res *pipeline.Result, target dialect.ID, format pipeline.OutputFormat) (string, error) {
	ext := map[pipeline.OutputFormat]string{
		pipeline.FormatDDL:      "sql",
		pipeline.FormatJSON:     "json",
		pipeline.FormatXML:      "xml",
		pipeline.FormatDocument: "json",
	}[format]
	key := fmt.Sprintf("schemas/%s/%s.%s", target, res.RequestID, ext)
	if _, err := h.store.Put(ctx, key, contentType(format), []byte(res.Output)); err != nil {
		return "", err
	}
	return h.store.PresignURL(ctx, key, 24*time.Hour)
}

func contentType(format pipeline.OutputFormat) string {
	switch format {
	case pipeline.FormatJSON, pipeline.FormatDocument:
		return "application/json"
	case pipeline.FormatXML:
		return "application/xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// writeError maps errs kinds onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsParse(err), errs.IsInvalidInput(err), errs.IsSizeLimit(err):
		status = http.StatusBadRequest
	case errs.IsValidation(err), errs.IsMergeConflict(err):
		status = http.StatusUnprocessableEntity
	case errs.IsUnsupported(err):
		status = http.StatusNotImplemented
	case errs.IsStorage(err):
		status = http.StatusBadGateway
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs method, path, status, and duration for every request.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("took", time.Since(start)).
			Logger().Info("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
