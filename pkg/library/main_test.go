package library

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/export"
	"github.com/CTAG07/Quill/pkg/store"
)

func setupEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "quill.db")+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.SetupSchema(db))

	st, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return engine.New(st, export.NewWriter(filepath.Join(dir, "documents")))
}
