package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CTAG07/Quill/pkg/engine"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the JSON API on top of an engine.
type Server struct {
	logger      *slog.Logger
	templateAPI *TemplateAPI
	documentAPI *DocumentAPI
	serverAPI   *ServerAPI
	mux         *http.ServeMux
}

func NewServer(e *engine.Engine, logger *slog.Logger, listLimit int) *Server {
	server := &Server{
		logger:      logger,
		templateAPI: NewTemplateAPI(e, logger),
		documentAPI: NewDocumentAPI(e, logger, listLimit),
		serverAPI:   NewServerAPI(e, logger),
		mux:         http.NewServeMux(),
	}
	server.templateAPI.RegisterRoutes(server.mux)
	server.documentAPI.RegisterRoutes(server.mux)
	server.serverAPI.RegisterRoutes(server.mux)
	server.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("API request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Stopping API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("API server shutdown failed", "error", err)
		return err
	}
	s.logger.Info("API server stopped.")
	return nil
}

func (c *cli) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config.ServerAddr
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return NewServer(a.engine, c.logger, c.config.ListLimit).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
