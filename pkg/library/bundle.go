package library

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/store"
)

// BundleVersion is the bundle file format version written by WriteBundle.
const BundleVersion = 1

// Bundle is the serializable form of a set of templates.
type Bundle struct {
	Version   int              `yaml:"version"`
	Templates []BundleTemplate `yaml:"templates"`
}

// BundleTemplate is one template inside a Bundle. Versions and variables are
// not carried over: the receiving store derives them itself.
type BundleTemplate struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category,omitempty"`
	Content  string `yaml:"content"`
}

// WriteBundle serializes templates into a YAML bundle.
func WriteBundle(w io.Writer, templates []store.Template) error {
	b := Bundle{Version: BundleVersion, Templates: make([]BundleTemplate, 0, len(templates))}
	for _, t := range templates {
		b.Templates = append(b.Templates, BundleTemplate{
			Name:     t.Name,
			Category: t.Category,
			Content:  t.Content,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return enc.Close()
}

// ReadBundle decodes and validates a YAML bundle.
func ReadBundle(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if err == io.EOF {
			return Bundle{}, fmt.Errorf("%w: empty bundle", engine.ErrInvalidInput)
		}
		return Bundle{}, fmt.Errorf("%w: failed to decode bundle: %v", engine.ErrInvalidInput, err)
	}
	if b.Version != BundleVersion {
		return Bundle{}, fmt.Errorf("%w: unsupported bundle version %d", engine.ErrInvalidInput, b.Version)
	}
	seen := make(map[string]struct{}, len(b.Templates))
	for i, t := range b.Templates {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return Bundle{}, fmt.Errorf("%w: bundle template #%d has no name", engine.ErrInvalidInput, i+1)
		}
		if _, dup := seen[name]; dup {
			return Bundle{}, fmt.Errorf("%w: template '%s' appears twice in bundle", engine.ErrInvalidInput, name)
		}
		seen[name] = struct{}{}
	}
	return b, nil
}

// ExportBundle writes every template of the store as a bundle.
func ExportBundle(ctx context.Context, src Templates, w io.Writer) (int, error) {
	templates, err := src.ListTemplates(ctx)
	if err != nil {
		return 0, err
	}
	return len(templates), WriteBundle(w, templates)
}

// ImportBundle reads a bundle and upserts each template into dst in bundle
// order. It stops at the first failing template and returns the results so far.
func ImportBundle(ctx context.Context, dst Templates, r io.Reader) ([]engine.UpsertResult, error) {
	b, err := ReadBundle(r)
	if err != nil {
		return nil, err
	}

	results := make([]engine.UpsertResult, 0, len(b.Templates))
	for _, t := range b.Templates {
		res, err := dst.UpsertTemplate(ctx, t.Name, t.Content, t.Category)
		if err != nil {
			return results, fmt.Errorf("failed to import template '%s': %w", t.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
