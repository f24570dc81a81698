package engine

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTAG07/Quill/pkg/export"
	"github.com/CTAG07/Quill/pkg/store"
)

// testClock returns a clock that advances one second per call, starting at start.
func testClock(start time.Time) func() time.Time {
	current := start.Add(-time.Second)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fixture struct {
	engine    *Engine
	store     *store.Store
	exportDir string
}

func setupEngine(t *testing.T, opts ...Option) fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "quill.db")+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.SetupSchema(db))

	st, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	exportDir := filepath.Join(dir, "documents")
	opts = append([]Option{WithClock(testClock(epoch))}, opts...)
	return fixture{
		engine:    New(st, export.NewWriter(exportDir), opts...),
		store:     st,
		exportDir: exportDir,
	}
}

func TestUpsertTemplateVersioning(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	first, err := f.engine.UpsertTemplate(ctx, "x", "Hello {{name}}", "")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Template.Version)
	assert.Equal(t, "general", first.Template.Category)
	assert.Equal(t, []string{"name"}, first.Template.Variables)

	second, err := f.engine.UpsertTemplate(ctx, "x", "Bye {{who}} {{when}} {{who}}", "letters")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, 2, second.Template.Version)
	assert.Equal(t, "Bye {{who}} {{when}} {{who}}", second.Template.Content)
	assert.Equal(t, []string{"who", "when"}, second.Template.Variables)
	assert.True(t, second.Template.UpdatedAt.After(second.Template.CreatedAt))

	other, err := f.engine.UpsertTemplate(ctx, "y", "plain", "misc")
	require.NoError(t, err)
	assert.True(t, other.Created)
	assert.Equal(t, 1, other.Template.Version)
	assert.Empty(t, other.Template.Variables)

	stored, err := f.engine.GetTemplate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, []string{"who", "when"}, stored.Variables)
}

func TestUpsertTemplateRejectsBlankName(t *testing.T) {
	f := setupEngine(t)
	_, err := f.engine.UpsertTemplate(context.Background(), "  ", "content", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpsertTemplateDefaultCategoryOption(t *testing.T) {
	f := setupEngine(t, WithDefaultCategory("legal"))
	res, err := f.engine.UpsertTemplate(context.Background(), "nda", "text", "")
	require.NoError(t, err)
	assert.Equal(t, "legal", res.Template.Category)
}

func TestRender(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "owe", "Hello {{name}}, you owe {{amount}}", "")
	require.NoError(t, err)

	vars := map[string]string{"name": "Alice", "amount": "42"}
	doc, err := f.engine.Render(ctx, "owe", "Reminder", vars, "")
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice, you owe 42", doc.Content)
	assert.Equal(t, store.StatusDraft, doc.Status)
	assert.Equal(t, "txt", doc.Format)
	assert.Equal(t, "owe", doc.TemplateName)
	assert.Equal(t, vars, doc.Variables)

	stored, err := f.engine.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, stored.Content)
	assert.Equal(t, vars, stored.Variables)

	tmpl, err := f.engine.GetTemplate(ctx, "owe")
	require.NoError(t, err)
	assert.Equal(t, 1, tmpl.Version, "render must not touch the template")
}

func TestRenderMissingVariable(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "owe", "Hello {{name}}, you owe {{amount}}", "")
	require.NoError(t, err)

	_, err = f.engine.Render(ctx, "owe", "Reminder", map[string]string{"name": "Alice"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingVariable)
	assert.NotErrorIs(t, err, ErrNotFound)

	var re *RenderError
	require.ErrorAs(t, err, &re)
	name, ok := re.MissingVariable()
	assert.True(t, ok)
	assert.Equal(t, "amount", name)
	assert.Contains(t, err.Error(), "amount")

	counts, err := f.engine.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Documents, "failed render must not store a document")
}

func TestRenderErrors(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.Render(ctx, "ghost", "t", nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrMissingVariable)
	assert.EqualError(t, err, "template 'ghost' not found")

	_, err = f.engine.UpsertTemplate(ctx, "t", "static", "")
	require.NoError(t, err)
	_, err = f.engine.Render(ctx, "t", "t", nil, "pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRenderThenExportStateTransition(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "inv", "Total: {{total}}", "")
	require.NoError(t, err)
	doc, err := f.engine.Render(ctx, "inv", "Invoice #1", map[string]string{"total": "10"}, "md")
	require.NoError(t, err)
	require.Equal(t, store.StatusDraft, doc.Status)

	rec1, err := f.engine.Export(ctx, doc.Id, "")
	require.NoError(t, err)
	assert.Equal(t, "md", rec1.Format)
	assert.Equal(t, doc.Id, rec1.DocumentId)
	assert.Equal(t, f.exportDir, filepath.Dir(rec1.Path))

	data, err := os.ReadFile(rec1.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Invoice #1\n\n"))
	assert.True(t, strings.HasSuffix(string(data), "Total: 10\n"))
	assert.Equal(t, int64(len(data)), rec1.SizeBytes)

	got, err := f.engine.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusExported, got.Status)

	rec2, err := f.engine.Export(ctx, doc.Id, "")
	require.NoError(t, err)
	assert.NotEqual(t, rec1.Id, rec2.Id)
	assert.NotEqual(t, rec1.Path, rec2.Path)
	assert.FileExists(t, rec1.Path)
	assert.FileExists(t, rec2.Path)

	got, err = f.engine.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusExported, got.Status)

	history, err := f.engine.ExportHistory(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, rec1.Path, history[0].Path)
}

func TestExportFormatOverride(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "note", "<b>{{x}}</b>", "")
	require.NoError(t, err)
	doc, err := f.engine.Render(ctx, "note", "A Note", map[string]string{"x": "hi"}, "txt")
	require.NoError(t, err)

	rec, err := f.engine.Export(ctx, doc.Id, "html")
	require.NoError(t, err)
	assert.Equal(t, "html", rec.Format)
	assert.Equal(t, ".html", filepath.Ext(rec.Path))

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html><head><title>A Note</title></head><body><h1>A Note</h1><pre><b>hi</b></pre></body></html>", string(data))

	_, err = f.engine.Export(ctx, doc.Id, "docx")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportMissingDocument(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.Export(ctx, 99, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "document id=99 not found")

	_, err = f.engine.ExportHistory(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(f.exportDir)
	assert.True(t, os.IsNotExist(statErr), "no file should be written for a missing document")
}

func TestStatusCounts(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	counts, err := f.engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, counts)

	_, err = f.engine.UpsertTemplate(ctx, "a", "{{v}}", "")
	require.NoError(t, err)
	_, err = f.engine.UpsertTemplate(ctx, "b", "static", "")
	require.NoError(t, err)

	vars := map[string]string{"v": "1"}
	d1, err := f.engine.Render(ctx, "a", "one", vars, "")
	require.NoError(t, err)
	_, err = f.engine.Render(ctx, "a", "two", vars, "")
	require.NoError(t, err)
	_, err = f.engine.Render(ctx, "b", "three", nil, "")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = f.engine.Export(ctx, d1.Id, "")
		require.NoError(t, err)
	}

	counts, err = f.engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Templates: 2, Documents: 3, Drafts: 2, Exported: 1, TotalExports: 4}, counts)
}

func TestListDocumentsDefaultLimit(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "s", "static", "")
	require.NoError(t, err)
	for i := 0; i < DefaultListLimit+3; i++ {
		_, err = f.engine.Render(ctx, "s", "doc", nil, "")
		require.NoError(t, err)
	}

	docs, err := f.engine.ListDocuments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, docs, DefaultListLimit)

	docs, err = f.engine.ListDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Greater(t, docs[0].Id, docs[1].Id)
}

// failingStore wraps a Store and fails RecordExport.
type failingStore struct {
	Store
}

func (failingStore) RecordExport(context.Context, store.ExportRecord) (store.ExportRecord, error) {
	return store.ExportRecord{}, errors.New("disk on fire")
}

func TestExportStoreFailureLeavesDraft(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.engine.UpsertTemplate(ctx, "s", "static", "")
	require.NoError(t, err)
	doc, err := f.engine.Render(ctx, "s", "doc", nil, "")
	require.NoError(t, err)

	broken := New(failingStore{Store: f.store}, export.NewWriter(f.exportDir), WithClock(testClock(epoch)))
	_, err = broken.Export(ctx, doc.Id, "")
	require.EqualError(t, err, "disk on fire")

	got, err := f.engine.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraft, got.Status)
}
