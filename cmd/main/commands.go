package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/export"
	"github.com/CTAG07/Quill/pkg/store"
	"github.com/CTAG07/Quill/pkg/templating"
)

func (c *cli) newListCmd() *cobra.Command {
	var (
		kind   string
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents or templates",
		Example: `  quill list
  quill list --type templates
  quill list --limit 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return usageError(err)
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			switch kind {
			case "docs", "documents":
				if !cmd.Flags().Changed("limit") {
					limit = c.config.ListLimit
				}
				docs, err := a.engine.ListDocuments(ctx, limit)
				if err != nil {
					return err
				}
				if output != outputTable {
					return writeStructured(c.stdout, output, docs)
				}
				if len(docs) == 0 {
					_, _ = fmt.Fprintln(c.stdout, "No documents yet. Render one with 'quill render'.")
					return nil
				}
				return writeDocumentTable(c.stdout, newStyles(c.stdout), docs)
			case "templates":
				templates, err := a.engine.ListTemplates(ctx)
				if err != nil {
					return err
				}
				if output != outputTable {
					return writeStructured(c.stdout, output, templates)
				}
				if len(templates) == 0 {
					_, _ = fmt.Fprintln(c.stdout, "No templates yet. Add one with 'quill add'.")
					return nil
				}
				return writeTemplateTable(c.stdout, templates)
			}
			return usageError(fmt.Errorf("invalid --type %q (want docs or templates)", kind))
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "docs", "what to list: docs or templates")
	cmd.Flags().IntVarP(&limit, "limit", "n", engine.DefaultListLimit, "maximum number of documents")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func (c *cli) newAddCmd() *cobra.Command {
	var content, file, category string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a template, or replace an existing one as a new version",
		Example: `  quill add greeting --content "Hello {{name}}"
  quill add invoice --file invoice.tmpl --category billing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasContent, hasFile := cmd.Flags().Changed("content"), cmd.Flags().Changed("file")
			switch {
			case hasContent && hasFile:
				return usageError(errors.New("use either --content or --file, not both"))
			case !hasContent && !hasFile:
				return usageError(errors.New("template content is required (--content or --file)"))
			case hasFile:
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read template file: %w", err)
				}
				content = string(data)
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.UpsertTemplate(cmd.Context(), args[0], content, category)
			if err != nil {
				if errors.Is(err, engine.ErrInvalidInput) {
					return usageError(err)
				}
				return err
			}

			s := newStyles(c.stdout)
			t := res.Template
			if res.Created {
				_, _ = fmt.Fprintf(c.stdout, "%s template '%s' (v%d, category %s)\n", s.ok.Render("Created"), t.Name, t.Version, t.Category)
			} else {
				_, _ = fmt.Fprintf(c.stdout, "%s template '%s' to v%d (category %s)\n", s.ok.Render("Updated"), t.Name, t.Version, t.Category)
			}
			if len(t.Variables) > 0 {
				_, _ = fmt.Fprintf(c.stdout, "Variables: %s\n", strings.Join(t.Variables, ", "))
			} else {
				_, _ = fmt.Fprintln(c.stdout, s.muted.Render("No variables"))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "template content")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read template content from a file")
	cmd.Flags().StringVar(&category, "category", "", "template category (default from config)")
	return cmd
}

// parseVars decodes the --vars JSON object, keeping numbers as written.
func parseVars(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON in --vars: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON in --vars: trailing data after object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("--vars must be a JSON object")
	}
	return templating.StringifyAll(obj), nil
}

func (c *cli) newRenderCmd() *cobra.Command {
	var varsJSON, format string
	cmd := &cobra.Command{
		Use:   "render <template> <title>",
		Short: "Render a template into a new draft document",
		Example: `  quill render invoice "March invoice" --vars '{"amount": 42}'
  quill render letter "Welcome" --vars '{"name": "Alice"}' --format md`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseVars(varsJSON)
			if err != nil {
				return usageError(err)
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			doc, err := a.engine.Render(ctx, args[0], args[1], vars, format)
			if err != nil {
				return c.renderFailure(a, cmd, args[0], vars, err)
			}

			s := newStyles(c.stdout)
			_, _ = fmt.Fprintf(c.stdout, "%s document #%d: %s (%s, %s)\n",
				s.ok.Render("Rendered"), doc.Id, doc.Title, doc.Format, s.Status(doc.Status))
			_, _ = fmt.Fprintln(c.stdout, s.heading.Render("Preview:"))
			_, _ = fmt.Fprintln(c.stdout, truncate(doc.Content, c.config.PreviewLength))
			return nil
		},
	}
	cmd.Flags().StringVar(&varsJSON, "vars", "{}", "variables as a JSON object")
	cmd.Flags().StringVar(&format, "format", "", "document format: txt, html or md (default from config)")
	return cmd
}

// renderFailure adds context to render errors: suggestions for unknown
// template names and the full list of variables still missing.
func (c *cli) renderFailure(a *app, cmd *cobra.Command, name string, vars map[string]string, err error) error {
	ctx := cmd.Context()
	switch {
	case errors.Is(err, engine.ErrNotFound):
		templates, listErr := a.engine.ListTemplates(ctx)
		if listErr != nil {
			return err
		}
		names := make([]string, len(templates))
		for i, t := range templates {
			names[i] = t.Name
		}
		if hint := templateHint(err, names); hint != "" {
			return withHint(err, hint)
		}
	case errors.Is(err, engine.ErrMissingVariable):
		tmpl, getErr := a.engine.GetTemplate(ctx, name)
		if getErr != nil {
			return err
		}
		missing := templating.Missing(tmpl.Content, vars)
		return withHint(err, "Missing variables: "+strings.Join(missing, ", ")+
			"\nTemplate expects: "+strings.Join(tmpl.Variables, ", "))
	case errors.Is(err, engine.ErrInvalidInput):
		return usageError(err)
	}
	return err
}

func parseDocumentId(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, usageError(fmt.Errorf("invalid document id %q", arg))
	}
	return id, nil
}

func (c *cli) newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <doc_id>",
		Short: "Write a document to a file and mark it exported",
		Example: `  quill export 3
  quill export 3 --format html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentId(args[0])
			if err != nil {
				return err
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.engine.Export(cmd.Context(), id, format)
			if err != nil {
				if errors.Is(err, engine.ErrInvalidInput) {
					return usageError(err)
				}
				return err
			}
			s := newStyles(c.stdout)
			_, _ = fmt.Fprintf(c.stdout, "%s document #%d to %s (%s)\n",
				s.ok.Render("Exported"), rec.DocumentId, rec.Path, humanize.Bytes(uint64(rec.SizeBytes)))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "override the document format: txt, html or md")
	return cmd
}

func (c *cli) newStatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show template, document and export counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return usageError(err)
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			counts, err := a.engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			if output != outputTable {
				return writeStructured(c.stdout, output, counts)
			}

			s := newStyles(c.stdout)
			_, _ = fmt.Fprintln(c.stdout, s.heading.Render("Quill status"))
			_, _ = fmt.Fprintf(c.stdout, "  Templates:  %s\n", humanize.Comma(int64(counts.Templates)))
			_, _ = fmt.Fprintf(c.stdout, "  Documents:  %s\n", humanize.Comma(int64(counts.Documents)))
			_, _ = fmt.Fprintf(c.stdout, "    %s  %s\n", s.Status(store.StatusDraft), humanize.Comma(int64(counts.Drafts)))
			_, _ = fmt.Fprintf(c.stdout, "    %s  %s\n", s.Status(store.StatusExported), humanize.Comma(int64(counts.Exported)))
			_, _ = fmt.Fprintf(c.stdout, "  Exports:    %s\n", humanize.Comma(int64(counts.TotalExports)))
			_, _ = fmt.Fprintln(c.stdout, s.muted.Render("  Export dir: "+c.config.ExportDir))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func (c *cli) newShowCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <doc_id>",
		Short: "Show a document and its export history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentId(args[0])
			if err != nil {
				return err
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			doc, err := a.engine.GetDocument(ctx, id)
			if err != nil {
				return err
			}
			history, err := a.engine.ExportHistory(ctx, id)
			if err != nil {
				return err
			}

			s := newStyles(c.stdout)
			_, _ = fmt.Fprintf(c.stdout, "%s\n", s.heading.Render(fmt.Sprintf("#%d %s", doc.Id, doc.Title)))
			_, _ = fmt.Fprintf(c.stdout, "Template: %s  Format: %s  Status: %s  Created: %s\n",
				doc.TemplateName, doc.Format, s.Status(doc.Status), humanize.Time(doc.CreatedAt))
			if len(doc.Variables) > 0 {
				data, _ := json.Marshal(doc.Variables)
				_, _ = fmt.Fprintf(c.stdout, "Variables: %s\n", data)
			}
			_, _ = fmt.Fprintln(c.stdout)

			body := doc.Content
			if !raw && doc.Format == string(export.FormatMarkdown) && c.isTerminal() {
				if rendered, err := renderMarkdown(export.Wrap(export.FormatMarkdown, doc.Title, doc.Content)); err == nil {
					body = rendered
				} else {
					c.logger.Debug("Markdown preview failed", "error", err)
				}
			}
			_, _ = fmt.Fprintln(c.stdout, body)

			if len(history) == 0 {
				_, _ = fmt.Fprintln(c.stdout, s.muted.Render("Not exported yet."))
				return nil
			}
			_, _ = fmt.Fprintln(c.stdout, s.heading.Render("Exports"))
			return writeExportTable(c.stdout, history)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print content without terminal formatting")
	return cmd
}

// isTerminal reports whether stdout is an interactive terminal.
func (c *cli) isTerminal() bool {
	f, ok := c.stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Needs neither configuration nor database.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(c.stdout, "quill %s (commit %s, built %s)\n", Version, Commit, BuildDate)
			return nil
		},
	}
}
