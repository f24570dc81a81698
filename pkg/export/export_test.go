package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var exportTime = time.Date(2026, 5, 1, 9, 30, 15, 0, time.UTC)

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"txt", "html", "md", "MD", " html "} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	for _, in := range []string{"", "pdf", "markdown"} {
		if _, err := ParseFormat(in); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", in, err)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "Total: 10"},
		{FormatMarkdown, "# Invoice #1\n\nTotal: 10\n"},
		{FormatHTML, "<!DOCTYPE html><html><head><title>Invoice #1</title></head><body><h1>Invoice #1</h1><pre>Total: 10</pre></body></html>"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := Wrap(tt.format, "Invoice #1", "Total: 10"); got != tt.want {
				t.Errorf("Wrap() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapHTMLDoesNotEscape(t *testing.T) {
	got := Wrap(FormatHTML, "a<b", "<script>")
	if !strings.Contains(got, "<pre><script></pre>") || !strings.Contains(got, "<h1>a<b</h1>") {
		t.Errorf("Wrap() escaped content: %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Invoice #1":         "Invoice__1",
		"q3-report_final":    "q3-report_final",
		"a/b\\c:d":           "a_b_c_d",
		"Café":               "Café",
		"Cafe\u0301":         "Café",
		"":                   "",
		"  spaced  out  ":    "__spaced__out__",
		"日本語 タイトル":           "日本語_タイトル",
		"../../etc/passwd":   "______etc_passwd",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName("Invoice #1", exportTime, FormatMarkdown)
	if want := "Invoice__1_20260501_093015.md"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestWriterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "documents")
	w := NewWriter(dir)

	res, err := w.Write("Invoice #1", "Total: 10", FormatMarkdown, exportTime)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.Dir(res.Path) != dir {
		t.Errorf("file written outside export dir: %s", res.Path)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Invoice #1\n\n") || !strings.HasSuffix(string(data), "Total: 10\n") {
		t.Errorf("unexpected file content %q", data)
	}
	if res.Size != int64(len(data)) {
		t.Errorf("Size = %d, file has %d bytes", res.Size, len(data))
	}
}

func TestWriterNeverOverwrites(t *testing.T) {
	w := NewWriter(t.TempDir())

	first, err := w.Write("Same", "one", FormatText, exportTime)
	if err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	second, err := w.Write("Same", "two", FormatText, exportTime)
	if err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	third, err := w.Write("Same", "three", FormatText, exportTime)
	if err != nil {
		t.Fatalf("third Write() error = %v", err)
	}

	if first.Path == second.Path || second.Path == third.Path {
		t.Fatalf("paths collided: %s, %s, %s", first.Path, second.Path, third.Path)
	}
	if !strings.HasSuffix(second.Path, "Same_20260501_093015_1.txt") {
		t.Errorf("unexpected suffixed path %s", second.Path)
	}

	data, _ := os.ReadFile(first.Path)
	if string(data) != "one" {
		t.Errorf("first export was overwritten: %q", data)
	}
}
