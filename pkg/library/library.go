package library

import (
	"context"

	"github.com/CTAG07/Quill/pkg/engine"
	"github.com/CTAG07/Quill/pkg/store"
)

// Templates is the subset of *engine.Engine the library needs.
type Templates interface {
	UpsertTemplate(ctx context.Context, name, content, category string) (engine.UpsertResult, error)
	GetTemplate(ctx context.Context, name string) (store.Template, error)
	ListTemplates(ctx context.Context) ([]store.Template, error)
}
