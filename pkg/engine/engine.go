package engine

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CTAG07/Quill/pkg/export"
	"github.com/CTAG07/Quill/pkg/store"
	"github.com/CTAG07/Quill/pkg/templating"
)

// DefaultListLimit is used by ListDocuments when no positive limit is given.
const DefaultListLimit = 25

// Store is the persistence contract the engine needs. *store.Store implements it.
type Store interface {
	GetTemplateByName(ctx context.Context, name string) (store.Template, error)
	ListTemplates(ctx context.Context) ([]store.Template, error)
	UpsertTemplate(ctx context.Context, name, content string, variables []string, category string, now time.Time) (store.Template, bool, error)
	InsertDocument(ctx context.Context, doc store.Document) (store.Document, error)
	GetDocument(ctx context.Context, id int) (store.Document, error)
	ListDocuments(ctx context.Context, limit int) ([]store.Document, error)
	RecordExport(ctx context.Context, rec store.ExportRecord) (store.ExportRecord, error)
	ListExports(ctx context.Context, documentId int) ([]store.ExportRecord, error)
	Counts(ctx context.Context) (store.Counts, error)
}

// FileWriter persists an export file. *export.Writer implements it.
type FileWriter interface {
	Write(title, content string, f export.Format, at time.Time) (export.Result, error)
}

// Engine runs the template, render, and export operations. Mutating operations
// are serialised, so an Engine may be shared by concurrent callers within one
// process.
type Engine struct {
	store           Store
	files           FileWriter
	logger          *slog.Logger
	now             func() time.Time
	defaultCategory string
	defaultFormat   export.Format
	mu              sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDefaultCategory sets the category used for templates upserted without one.
func WithDefaultCategory(category string) Option {
	return func(e *Engine) {
		if category != "" {
			e.defaultCategory = category
		}
	}
}

// WithDefaultFormat sets the format used for documents rendered without one.
func WithDefaultFormat(f export.Format) Option {
	return func(e *Engine) {
		if f != "" {
			e.defaultFormat = f
		}
	}
}

// New creates an Engine on top of the given store and file writer.
func New(s Store, files FileWriter, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		files:           files,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		defaultCategory: store.DefaultCategory,
		defaultFormat:   export.FormatText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpsertResult is the outcome of UpsertTemplate. Created is true when the
// template did not exist before the call.
type UpsertResult struct {
	Template store.Template `json:"template"`
	Created  bool           `json:"created"`
}

// UpsertTemplate creates a template at version 1, or overwrites an existing
// template of the same name and increments its version. The variable list is
// always derived from content. An empty category falls back to the default.
func (e *Engine) UpsertTemplate(ctx context.Context, name, content, category string) (UpsertResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return UpsertResult{}, invalidInput("template name must not be empty")
	}
	if category = strings.TrimSpace(category); category == "" {
		category = e.defaultCategory
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tmpl, created, err := e.store.UpsertTemplate(ctx, name, content, templating.Extract(content), category, e.now())
	if err != nil {
		return UpsertResult{}, err
	}

	e.logger.InfoContext(ctx, "Template saved",
		slog.String("template", tmpl.Name),
		slog.Int("version", tmpl.Version),
		slog.Bool("created", created),
		slog.Any("variables", tmpl.Variables),
	)
	return UpsertResult{Template: tmpl, Created: created}, nil
}

// Render substitutes vars into the named template and stores the result as a
// new draft document. An empty format falls back to the default format.
func (e *Engine) Render(ctx context.Context, templateName, title string, vars map[string]string, format string) (store.Document, error) {
	f := e.defaultFormat
	if format != "" {
		var err error
		if f, err = export.ParseFormat(format); err != nil {
			return store.Document{}, invalidInput("%v", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tmpl, err := e.store.GetTemplateByName(ctx, templateName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Document{}, &NotFoundError{Kind: "template", Ref: templateName}
		}
		return store.Document{}, err
	}

	content, err := templating.Render(tmpl.Content, vars)
	if err != nil {
		e.logger.WarnContext(ctx, "Render failed", "template", templateName, "error", err)
		return store.Document{}, &RenderError{Template: templateName, Err: err}
	}

	used := make(map[string]string, len(vars))
	for k, v := range vars {
		used[k] = v
	}

	doc, err := e.store.InsertDocument(ctx, store.Document{
		TemplateId:   tmpl.Id,
		TemplateName: tmpl.Name,
		Title:        title,
		Content:      content,
		Variables:    used,
		Format:       string(f),
		Status:       store.StatusDraft,
		CreatedAt:    e.now(),
	})
	if err != nil {
		return store.Document{}, err
	}

	e.logger.InfoContext(ctx, "Document rendered",
		slog.Int("document_id", doc.Id),
		slog.String("template", tmpl.Name),
		slog.Int("template_version", tmpl.Version),
		slog.String("format", doc.Format),
	)
	return doc, nil
}

// Export writes the document to a new file, records the export, and marks the
// document as exported. An empty format uses the document's own format.
// Exporting an already exported document succeeds and produces another file
// and record.
func (e *Engine) Export(ctx context.Context, documentId int, format string) (store.ExportRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.getDocument(ctx, documentId)
	if err != nil {
		return store.ExportRecord{}, err
	}

	if format == "" {
		format = doc.Format
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return store.ExportRecord{}, invalidInput("%v", err)
	}

	at := e.now()
	res, err := e.files.Write(doc.Title, doc.Content, f, at)
	if err != nil {
		return store.ExportRecord{}, err
	}

	rec, err := e.store.RecordExport(ctx, store.ExportRecord{
		DocumentId: doc.Id,
		Path:       res.Path,
		Format:     string(f),
		SizeBytes:  res.Size,
		ExportedAt: at,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ExportRecord{}, &NotFoundError{Kind: "document", Ref: strconv.Itoa(documentId)}
		}
		return store.ExportRecord{}, err
	}

	e.logger.InfoContext(ctx, "Document exported",
		slog.Int("document_id", doc.Id),
		slog.Int("export_id", rec.Id),
		slog.String("path", rec.Path),
		slog.Int64("size_bytes", rec.SizeBytes),
		slog.String("previous_status", string(doc.Status)),
	)
	return rec, nil
}

// Status returns aggregate counts of templates, documents by status, and
// export records.
func (e *Engine) Status(ctx context.Context) (store.Counts, error) {
	return e.store.Counts(ctx)
}

// GetTemplate returns the named template.
func (e *Engine) GetTemplate(ctx context.Context, name string) (store.Template, error) {
	tmpl, err := e.store.GetTemplateByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Template{}, &NotFoundError{Kind: "template", Ref: name}
		}
		return store.Template{}, err
	}
	return tmpl, nil
}

// ListTemplates returns all templates ordered by name.
func (e *Engine) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return e.store.ListTemplates(ctx)
}

// GetDocument returns a document by id.
func (e *Engine) GetDocument(ctx context.Context, id int) (store.Document, error) {
	return e.getDocument(ctx, id)
}

// ListDocuments returns up to limit documents, newest first. A limit of zero
// or less means DefaultListLimit.
func (e *Engine) ListDocuments(ctx context.Context, limit int) ([]store.Document, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return e.store.ListDocuments(ctx, limit)
}

// ExportHistory returns the export records of a document, oldest first.
func (e *Engine) ExportHistory(ctx context.Context, documentId int) ([]store.ExportRecord, error) {
	if _, err := e.getDocument(ctx, documentId); err != nil {
		return nil, err
	}
	return e.store.ListExports(ctx, documentId)
}

func (e *Engine) getDocument(ctx context.Context, id int) (store.Document, error) {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Document{}, &NotFoundError{Kind: "document", Ref: strconv.Itoa(id)}
		}
		return store.Document{}, err
	}
	return doc, nil
}
