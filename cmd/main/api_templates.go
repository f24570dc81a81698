package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Quill/pkg/engine"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(e *engine.Engine, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		engine: e,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates", t.handleTemplates)
	mux.HandleFunc("/api/templates/{name}", t.handleTemplate)
}

type upsertTemplateRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// handleTemplates lists templates or upserts one.
func (t *TemplateAPI) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		templates, err := t.engine.ListTemplates(r.Context())
		if err != nil {
			respondWithEngineError(w, t.logger, err)
			return
		}
		respondWithJSON(w, http.StatusOK, templates)
	case http.MethodPost:
		var req upsertTemplateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		res, err := t.engine.UpsertTemplate(r.Context(), req.Name, req.Content, req.Category)
		if err != nil {
			respondWithEngineError(w, t.logger, err)
			return
		}
		code := http.StatusOK
		if res.Created {
			code = http.StatusCreated
		}
		t.logger.Info("Template upserted via API", "template", res.Template.Name, "version", res.Template.Version)
		respondWithJSON(w, code, res)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleTemplate returns a single template by name.
func (t *TemplateAPI) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	tmpl, err := t.engine.GetTemplate(r.Context(), r.PathValue("name"))
	if err != nil {
		respondWithEngineError(w, t.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tmpl)
}
