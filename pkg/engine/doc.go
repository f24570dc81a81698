/*
Package engine composes placeholder rendering, the template and document
store, and the export writer into Quill's document lifecycle.

An Engine is built around an explicitly supplied Store and FileWriter:

	eng := engine.New(st, export.NewWriter(dir), engine.WithLogger(logger))
	res, err := eng.UpsertTemplate(ctx, "invoice", "Hello {{name}}", "")
	doc, err := eng.Render(ctx, "invoice", "Invoice #1", map[string]string{"name": "Alice"}, "md")
	rec, err := eng.Export(ctx, doc.Id, "")

Templates are upserted: the first upsert of a name creates version 1, each
later one overwrites the content and bumps the version. Documents start as
drafts and become exported after their first successful export; exporting
again is allowed and appends another record and file.

Failures are reported as NotFoundError, RenderError, or ErrInvalidInput so
callers can branch on the cause with errors.Is.
*/
package engine
