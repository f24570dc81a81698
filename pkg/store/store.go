package store

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the tables and indexes used by the store. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaTemplates = `
CREATE TABLE IF NOT EXISTS templates (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT     NOT NULL UNIQUE,
    content     TEXT     NOT NULL,
    variables   TEXT     NOT NULL DEFAULT '[]',
    category    TEXT     NOT NULL DEFAULT 'general',
    version     INTEGER  NOT NULL DEFAULT 1,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);
`
		schemaDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    template_id    INTEGER,
    template_name  TEXT     NOT NULL,
    title          TEXT     NOT NULL,
    content        TEXT     NOT NULL,
    variables_used TEXT     NOT NULL DEFAULT '{}',
    fmt            TEXT     NOT NULL DEFAULT 'txt',
    status         TEXT     NOT NULL DEFAULT 'draft',
    created_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
`
		schemaExports = `
CREATE TABLE IF NOT EXISTS export_records (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id     INTEGER  NOT NULL,
    export_path     TEXT     NOT NULL,
    export_format   TEXT     NOT NULL,
    file_size_bytes INTEGER  NOT NULL DEFAULT 0,
    exported_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_records_document ON export_records(document_id);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaTemplates); err != nil {
		return fmt.Errorf("could not create templates schema: %w", err)
	}

	if _, err = tx.Exec(schemaDocuments); err != nil {
		return fmt.Errorf("could not create documents schema: %w", err)
	}

	if _, err = tx.Exec(schemaExports); err != nil {
		return fmt.Errorf("could not create export records schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store holds the database connection and the prepared statements used to
// read and write templates, documents, and export records.
type Store struct {
	db                 *sql.DB
	stmtGetTemplate    *sql.Stmt
	stmtListTemplates  *sql.Stmt
	stmtInsertTemplate *sql.Stmt
	stmtUpdateTemplate *sql.Stmt
	stmtInsertDocument *sql.Stmt
	stmtGetDocument    *sql.Stmt
	stmtListDocuments  *sql.Stmt
	stmtInsertExport   *sql.Stmt
	stmtSetStatus      *sql.Stmt
	stmtListExports    *sql.Stmt
	stmtCounts         *sql.Stmt
	logger             *slog.Logger
}

// New creates a Store on a database whose schema has been set up with
// SetupSchema. It pre-compiles all SQL statements, returning an error if any
// preparation fails.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetTemplate, `SELECT id, name, content, variables, category, version, created_at, updated_at FROM templates WHERE name = ?;`},
		{&s.stmtListTemplates, `SELECT id, name, content, variables, category, version, created_at, updated_at FROM templates ORDER BY name;`},
		{&s.stmtInsertTemplate, `INSERT INTO templates (name, content, variables, category, version, created_at, updated_at) VALUES (?, ?, ?, ?, 1, ?, ?);`},
		{&s.stmtUpdateTemplate, `UPDATE templates SET content = ?, variables = ?, category = ?, version = version + 1, updated_at = ? WHERE id = ?;`},
		{&s.stmtInsertDocument, `INSERT INTO documents (template_id, template_name, title, content, variables_used, fmt, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`},
		{&s.stmtGetDocument, `SELECT id, template_id, template_name, title, content, variables_used, fmt, status, created_at FROM documents WHERE id = ?;`},
		{&s.stmtListDocuments, `SELECT id, template_id, template_name, title, content, variables_used, fmt, status, created_at FROM documents ORDER BY created_at DESC, id DESC LIMIT ?;`},
		{&s.stmtInsertExport, `INSERT INTO export_records (document_id, export_path, export_format, file_size_bytes, exported_at) VALUES (?, ?, ?, ?, ?);`},
		{&s.stmtSetStatus, `UPDATE documents SET status = ? WHERE id = ?;`},
		{&s.stmtListExports, `SELECT id, document_id, export_path, export_format, file_size_bytes, exported_at FROM export_records WHERE document_id = ? ORDER BY exported_at, id;`},
		{&s.stmtCounts, `SELECT
    (SELECT COUNT(*) FROM templates),
    (SELECT COUNT(*) FROM documents),
    (SELECT COUNT(*) FROM documents WHERE status = 'draft'),
    (SELECT COUNT(*) FROM documents WHERE status = 'exported'),
    (SELECT COUNT(*) FROM export_records);`},
	}

	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}

	return s, nil
}

// Close releases all prepared SQL statements held by the Store. The underlying
// *sql.DB is owned by the caller and is not closed.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetTemplate,
		s.stmtListTemplates,
		s.stmtInsertTemplate,
		s.stmtUpdateTemplate,
		s.stmtInsertDocument,
		s.stmtGetDocument,
		s.stmtListDocuments,
		s.stmtInsertExport,
		s.stmtSetStatus,
		s.stmtListExports,
		s.stmtCounts,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
