package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// RecordExport appends an export record and marks its document as exported,
// in one transaction. It returns an error wrapping sql.ErrNoRows, and stores
// nothing, if the document does not exist.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) (ExportRecord, error) {
	rec.ExportedAt = rec.ExportedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	res, err := tx.StmtContext(ctx, s.stmtSetStatus).ExecContext(ctx, string(StatusExported), rec.DocumentId)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("could not update status of document %d: %w", rec.DocumentId, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ExportRecord{}, err
	} else if n == 0 {
		return ExportRecord{}, fmt.Errorf("could not record export of document %d: %w", rec.DocumentId, sql.ErrNoRows)
	}

	res, err = tx.StmtContext(ctx, s.stmtInsertExport).ExecContext(ctx,
		rec.DocumentId, rec.Path, rec.Format, rec.SizeBytes, rec.ExportedAt)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("could not insert export record for document %d: %w", rec.DocumentId, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ExportRecord{}, err
	}
	rec.Id = int(id)

	if err = tx.Commit(); err != nil {
		return ExportRecord{}, fmt.Errorf("could not commit export record: %w", err)
	}

	s.logger.DebugContext(ctx, "Export recorded",
		slog.Int("document_id", rec.DocumentId),
		slog.Int("export_id", rec.Id),
		slog.String("path", rec.Path),
	)
	return rec, nil
}

// ListExports returns the export records of a document, oldest first.
func (s *Store) ListExports(ctx context.Context, documentId int) ([]ExportRecord, error) {
	rows, err := s.stmtListExports.QueryContext(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("could not list exports of document %d: %w", documentId, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	records := make([]ExportRecord, 0)
	for rows.Next() {
		var r ExportRecord
		if err = rows.Scan(&r.Id, &r.DocumentId, &r.Path, &r.Format, &r.SizeBytes, &r.ExportedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Counts returns aggregate counts over the whole store.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.stmtCounts.QueryRowContext(ctx).Scan(&c.Templates, &c.Documents, &c.Drafts, &c.Exported, &c.TotalExports)
	if err != nil {
		return Counts{}, fmt.Errorf("could not count rows: %w", err)
	}
	return c, nil
}
