package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

func scanDocument(row scanner) (Document, error) {
	var d Document
	var templateId sql.NullInt64
	var variables, status string
	if err := row.Scan(&d.Id, &templateId, &d.TemplateName, &d.Title, &d.Content, &variables, &d.Format, &status, &d.CreatedAt); err != nil {
		return Document{}, err
	}
	d.TemplateId = int(templateId.Int64)
	d.Status = Status(status)
	if err := json.Unmarshal([]byte(variables), &d.Variables); err != nil {
		return Document{}, fmt.Errorf("corrupt variables for document %d: %w", d.Id, err)
	}
	if d.Variables == nil {
		d.Variables = map[string]string{}
	}
	return d, nil
}

// InsertDocument stores a rendered document and returns it with its Id set.
// CreatedAt is normalised to UTC.
func (s *Store) InsertDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.Variables == nil {
		doc.Variables = map[string]string{}
	}
	varsJSON, err := json.Marshal(doc.Variables)
	if err != nil {
		return Document{}, fmt.Errorf("could not encode variables: %w", err)
	}
	if doc.Status == "" {
		doc.Status = StatusDraft
	}
	doc.CreatedAt = doc.CreatedAt.UTC()

	res, err := s.stmtInsertDocument.ExecContext(ctx,
		doc.TemplateId, doc.TemplateName, doc.Title, doc.Content,
		string(varsJSON), doc.Format, string(doc.Status), doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("could not insert document '%s': %w", doc.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Document{}, err
	}
	doc.Id = int(id)

	s.logger.DebugContext(ctx, "Document stored",
		slog.Int("document_id", doc.Id),
		slog.String("template", doc.TemplateName),
	)
	return doc, nil
}

// GetDocument retrieves a document by id. It returns an error wrapping
// sql.ErrNoRows if the document does not exist.
func (s *Store) GetDocument(ctx context.Context, id int) (Document, error) {
	d, err := scanDocument(s.stmtGetDocument.QueryRowContext(ctx, id))
	if err != nil {
		return Document{}, fmt.Errorf("could not get document %d: %w", id, err)
	}
	return d, nil
}

// ListDocuments returns up to limit documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	rows, err := s.stmtListDocuments.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list documents: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	docs := make([]Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
