package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/natefinch/atomic"
	"golang.org/x/text/unicode/norm"
)

// timestampLayout tags export file names with second resolution.
const timestampLayout = "20060102_150405"

// Slug replaces every rune of title that is not a letter, a digit, '_' or '-'
// with '_'. The title is NFC-normalised first so that decomposed accents
// survive as the letters they compose.
func Slug(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, norm.NFC.String(title))
}

// FileName builds the export file name for a document title exported at the
// given time in the given format.
func FileName(title string, at time.Time, f Format) string {
	return Slug(title) + "_" + at.UTC().Format(timestampLayout) + "." + f.Extension()
}

// Result describes a written export file.
type Result struct {
	Path string
	Size int64
}

// Writer writes export files into a single directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a Writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Writer. By default, all logs are discarded.
func (w *Writer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Dir returns the export directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write wraps content for the format and writes it to a new file named after
// the title and export time. An existing file is never overwritten: if the name
// is taken, a numeric suffix is added before the extension. The returned size is
// read back from the file system.
func (w *Writer) Write(title, content string, f Format, at time.Time) (Result, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	path, err := w.freePath(FileName(title, at, f))
	if err != nil {
		return Result{}, err
	}

	body := Wrap(f, title, content)
	if err = atomic.WriteFile(path, strings.NewReader(body)); err != nil {
		return Result{}, fmt.Errorf("failed to write export file: %w", err)
	}
	// atomic.WriteFile creates new files from a 0600 temp file.
	if err = os.Chmod(path, 0644); err != nil {
		w.logger.Warn("Failed to set export file mode", "path", path, "error", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat export file: %w", err)
	}

	w.logger.Debug("Export file written", "path", path, "format", string(f), "size", info.Size())
	return Result{Path: path, Size: info.Size()}, nil
}

// freePath returns a path in the export directory for name that does not
// exist yet.
func (w *Writer) freePath(name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(w.dir, name)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check export path: %w", err)
		}
		candidate = filepath.Join(w.dir, base+"_"+strconv.Itoa(i)+ext)
	}
}
