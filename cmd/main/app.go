package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/export"
	"github.com/CTAG07/Quill/pkg/store"
)

// app bundles the opened database and the engine built on top of it.
type app struct {
	config *Config
	logger *slog.Logger
	db     *sql.DB
	store  *store.Store
	engine *engine.Engine
	writer *export.Writer
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openApp opens the database, creates the schema if needed, and builds the engine.
func openApp(cfg *Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := openDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup schema: %w", err)
	}

	st, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}
	st.SetLogger(logger)

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithDefaultCategory(cfg.DefaultCategory),
	}
	if cfg.DefaultFormat != "" {
		f, err := export.ParseFormat(cfg.DefaultFormat)
		if err != nil {
			st.Close()
			_ = db.Close()
			return nil, fmt.Errorf("invalid default_format in config: %w", err)
		}
		opts = append(opts, engine.WithDefaultFormat(f))
	}

	writer := export.NewWriter(cfg.ExportDir)
	writer.SetLogger(logger)

	logger.Debug("Database opened", "path", cfg.DatabasePath, "export_dir", cfg.ExportDir)
	return &app{
		config: cfg,
		logger: logger,
		db:     db,
		store:  st,
		engine: engine.New(st, writer, opts...),
		writer: writer,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database", "error", err)
	}
}
