package store

import "time"

// Status is the lifecycle state of a rendered document.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusFinal    Status = "final"
	StatusExported Status = "exported"
)

// DefaultCategory is used for templates stored without a category.
const DefaultCategory = "general"

// Template is a named, versioned text body containing placeholders.
// Variables is derived from Content by the caller and stored alongside it.
type Template struct {
	Id        int       `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Content   string    `json:"content" yaml:"content"`
	Variables []string  `json:"variables" yaml:"variables"`
	Category  string    `json:"category" yaml:"category"`
	Version   int       `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Document is the immutable result of rendering a template. TemplateName is
// captured at render time so history survives later template changes.
type Document struct {
	Id           int               `json:"id" yaml:"id"`
	TemplateId   int               `json:"template_id" yaml:"template_id"`
	TemplateName string            `json:"template_name" yaml:"template_name"`
	Title        string            `json:"title" yaml:"title"`
	Content      string            `json:"content" yaml:"content"`
	Variables    map[string]string `json:"variables" yaml:"variables"`
	Format       string            `json:"format" yaml:"format"`
	Status       Status            `json:"status" yaml:"status"`
	CreatedAt    time.Time         `json:"created_at" yaml:"created_at"`
}

// ExportRecord is the durable trace of one export of a document to disk.
type ExportRecord struct {
	Id         int       `json:"id" yaml:"id"`
	DocumentId int       `json:"document_id" yaml:"document_id"`
	Path       string    `json:"path" yaml:"path"`
	Format     string    `json:"format" yaml:"format"`
	SizeBytes  int64     `json:"size_bytes" yaml:"size_bytes"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
}

// Counts is an aggregate snapshot of the store.
type Counts struct {
	Templates    int `json:"templates" yaml:"templates"`
	Documents    int `json:"documents" yaml:"documents"`
	Drafts       int `json:"drafts" yaml:"drafts"`
	Exported     int `json:"exported" yaml:"exported"`
	TotalExports int `json:"total_exports" yaml:"total_exports"`
}
