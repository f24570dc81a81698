// Package export materialises rendered documents as files: it wraps content
// for the txt, html, and md output formats, derives filesystem-safe file names
// from titles, and writes each export to a new file in the export directory.
package export
