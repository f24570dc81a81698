package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Quill/pkg/store"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// styles renders colours only when the destination writer is a terminal.
type styles struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	status  map[store.Status]lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		status: map[store.Status]lipgloss.Style{
			store.StatusDraft:    r.NewStyle().Foreground(lipgloss.Color("11")),
			store.StatusFinal:    r.NewStyle().Foreground(lipgloss.Color("14")),
			store.StatusExported: r.NewStyle().Foreground(lipgloss.Color("10")),
		},
	}
}

func (s styles) Status(st store.Status) string {
	if style, ok := s.status[st]; ok {
		return style.Render(string(st))
	}
	return string(st)
}

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("invalid output format %q (want table, json or yaml)", output)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, output string, v any) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return validateOutput(output)
}

func writeDocumentTable(w io.Writer, s styles, docs []store.Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tTEMPLATE\tFORMAT\tCREATED\tSTATUS")
	for _, d := range docs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.Id, truncate(d.Title, 40), d.TemplateName, d.Format, humanize.Time(d.CreatedAt), s.Status(d.Status))
	}
	return tw.Flush()
}

func writeTemplateTable(w io.Writer, templates []store.Template) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tCATEGORY\tVERSION\tVARIABLES\tUPDATED")
	for _, t := range templates {
		_, _ = fmt.Fprintf(tw, "%s\t%s\tv%d\t%s\t%s\n",
			t.Name, t.Category, t.Version, strings.Join(t.Variables, ", "), humanize.Time(t.UpdatedAt))
	}
	return tw.Flush()
}

func writeExportTable(w io.Writer, records []store.ExportRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tFORMAT\tSIZE\tEXPORTED\tPATH")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Id, r.Format, humanize.Bytes(uint64(r.SizeBytes)), r.ExportedAt.Format(time.DateTime), r.Path)
	}
	return tw.Flush()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
