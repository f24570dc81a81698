package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

func scanTemplate(row scanner) (Template, error) {
	var t Template
	var variables string
	if err := row.Scan(&t.Id, &t.Name, &t.Content, &variables, &t.Category, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Template{}, err
	}
	if err := json.Unmarshal([]byte(variables), &t.Variables); err != nil {
		return Template{}, fmt.Errorf("corrupt variables for template '%s': %w", t.Name, err)
	}
	if t.Variables == nil {
		t.Variables = []string{}
	}
	return t, nil
}

// GetTemplateByName retrieves a single template. It returns an error wrapping
// sql.ErrNoRows if no template has that name.
func (s *Store) GetTemplateByName(ctx context.Context, name string) (Template, error) {
	t, err := scanTemplate(s.stmtGetTemplate.QueryRowContext(ctx, name))
	if err != nil {
		return Template{}, fmt.Errorf("could not get template '%s': %w", name, err)
	}
	return t, nil
}

// ListTemplates returns every template ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.stmtListTemplates.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list templates: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	templates := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// UpsertTemplate creates the template if no template has the given name, or
// overwrites its content, variables, and category and bumps its version by one.
// Both branches run in one transaction. The returned bool reports whether the
// template was created.
func (s *Store) UpsertTemplate(ctx context.Context, name, content string, variables []string, category string, now time.Time) (Template, bool, error) {
	if variables == nil {
		variables = []string{}
	}
	varsJSON, err := json.Marshal(variables)
	if err != nil {
		return Template{}, false, fmt.Errorf("could not encode variables: %w", err)
	}
	now = now.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Template{}, false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	existing, err := scanTemplate(tx.StmtContext(ctx, s.stmtGetTemplate).QueryRowContext(ctx, name))
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return Template{}, false, fmt.Errorf("could not query template '%s': %w", name, err)
	}

	var result Template
	if created {
		res, err := tx.StmtContext(ctx, s.stmtInsertTemplate).ExecContext(ctx, name, content, string(varsJSON), category, now, now)
		if err != nil {
			return Template{}, false, fmt.Errorf("could not insert template '%s': %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Template{}, false, err
		}
		result = Template{
			Id:        int(id),
			Name:      name,
			Content:   content,
			Variables: variables,
			Category:  category,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
	} else {
		if _, err = tx.StmtContext(ctx, s.stmtUpdateTemplate).ExecContext(ctx, content, string(varsJSON), category, now, existing.Id); err != nil {
			return Template{}, false, fmt.Errorf("could not update template '%s': %w", name, err)
		}
		result = existing
		result.Content = content
		result.Variables = variables
		result.Category = category
		result.Version = existing.Version + 1
		result.UpdatedAt = now
	}

	if err = tx.Commit(); err != nil {
		return Template{}, false, fmt.Errorf("could not commit template '%s': %w", name, err)
	}

	s.logger.DebugContext(ctx, "Template stored",
		slog.String("template", name),
		slog.Int("version", result.Version),
		slog.Bool("created", created),
	)
	return result, created, nil
}
