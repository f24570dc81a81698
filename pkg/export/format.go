package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output format for exported documents.
type Format string

const (
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatHTML, FormatMarkdown}
}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatHTML, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want txt, html or md)", ErrUnsupportedFormat, s)
}

// Extension is the file extension, without the dot, used for the format.
func (f Format) Extension() string {
	return string(f)
}

// Wrap formats a document body for the given format. HTML output is not
// escaped; callers exporting untrusted content must sanitise it first.
func Wrap(f Format, title, content string) string {
	switch f {
	case FormatHTML:
		return "<!DOCTYPE html><html><head>" +
			"<title>" + title + "</title></head>" +
			"<body><h1>" + title + "</h1>" +
			"<pre>" + content + "</pre></body></html>"
	case FormatMarkdown:
		return "# " + title + "\n\n" + content + "\n"
	default:
		return content
	}
}
