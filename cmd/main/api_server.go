package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Quill/pkg/engine"
)

// ServerAPI serves the status and version endpoints.
type ServerAPI struct {
	engine *engine.Engine
	logger *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI(e *engine.Engine, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{
		engine: e,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the /api/status and /api/version endpoints.
func (a *ServerAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
}

// handleStatus returns the aggregate counts.
func (a *ServerAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	counts, err := a.engine.Status(r.Context())
	if err != nil {
		respondWithEngineError(w, a.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

// handleVersion returns the application's build information.
func (a *ServerAPI) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	respondWithJSON(w, http.StatusOK, VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
}
