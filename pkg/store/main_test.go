package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new file-backed SQLite database in a temp dir and a
// Store for testing. It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := New(db)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

var testEpoch = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// insertDraft stores a minimal draft document and returns it.
func insertDraft(t *testing.T, s *Store, title string, at time.Time) Document {
	t.Helper()
	doc, err := s.InsertDocument(context.Background(), Document{
		TemplateId:   1,
		TemplateName: "tmpl",
		Title:        title,
		Content:      "body of " + title,
		Variables:    map[string]string{"k": "v"},
		Format:       "txt",
		CreatedAt:    at,
	})
	if err != nil {
		t.Fatalf("InsertDocument(%q) failed: %v", title, err)
	}
	return doc
}
