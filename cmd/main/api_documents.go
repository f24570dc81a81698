package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/templating"
)

// DocumentAPI holds the dependencies for the document API handlers.
type DocumentAPI struct {
	engine       *engine.Engine
	logger       *slog.Logger
	defaultLimit int
}

// NewDocumentAPI creates a new instance of the DocumentAPI.
func NewDocumentAPI(e *engine.Engine, logger *slog.Logger, defaultLimit int) *DocumentAPI {
	return &DocumentAPI{
		engine:       e,
		logger:       logger,
		defaultLimit: defaultLimit,
	}
}

// RegisterRoutes sets up the routing for all /api/documents endpoints.
func (d *DocumentAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/documents", d.handleDocuments)
	mux.HandleFunc("/api/documents/{id}", d.handleDocument)
	mux.HandleFunc("/api/documents/{id}/export", d.handleExport)
	mux.HandleFunc("/api/documents/{id}/exports", d.handleExportHistory)
}

type renderRequest struct {
	Template  string         `json:"template"`
	Title     string         `json:"title"`
	Variables map[string]any `json:"variables"`
	Format    string         `json:"format"`
}

type exportRequest struct {
	Format string `json:"format"`
}

// handleDocuments lists recent documents or renders a new one.
func (d *DocumentAPI) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := d.defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
				return
			}
			limit = n
		}
		docs, err := d.engine.ListDocuments(r.Context(), limit)
		if err != nil {
			respondWithEngineError(w, d.logger, err)
			return
		}
		respondWithJSON(w, http.StatusOK, docs)
	case http.MethodPost:
		var req renderRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		doc, err := d.engine.Render(r.Context(), req.Template, req.Title, templating.StringifyAll(req.Variables), req.Format)
		if err != nil {
			respondWithEngineError(w, d.logger, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, doc)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func documentId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid document id")
		return 0, false
	}
	return id, true
}

// handleDocument returns a single document.
func (d *DocumentAPI) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	doc, err := d.engine.GetDocument(r.Context(), id)
	if err != nil {
		respondWithEngineError(w, d.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// handleExport exports a document. The body, and its format, are optional.
func (d *DocumentAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	rec, err := d.engine.Export(r.Context(), id, req.Format)
	if err != nil {
		respondWithEngineError(w, d.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rec)
}

// handleExportHistory lists the export records of a document.
func (d *DocumentAPI) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	id, ok := documentId(w, r)
	if !ok {
		return
	}
	records, err := d.engine.ExportHistory(r.Context(), id)
	if err != nil {
		respondWithEngineError(w, d.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}
