package engine

import (
	"errors"
	"fmt"

	"github.com/CTAG07/Quill/pkg/templating"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrMissingVariable is matched by render failures caused by an absent variable.
	ErrMissingVariable = templating.ErrMissingVariable
	// ErrInvalidInput marks malformed caller input such as a blank template
	// name, an unsupported format, or an undecodable variable payload.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports a template name or document id that does not exist.
type NotFoundError struct {
	Kind string // "template" or "document"
	Ref  string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "document" {
		return fmt.Sprintf("document id=%s not found", e.Ref)
	}
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Ref)
}

// Is lets errors.Is(err, ErrNotFound) match any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RenderError reports a substitution failure while rendering a template.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render of template '%s' failed: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// MissingVariable returns the name of the absent variable, if that is what
// caused the failure.
func (e *RenderError) MissingVariable() (string, bool) {
	var mv *templating.MissingVariableError
	if errors.As(e.Err, &mv) {
		return mv.Name, true
	}
	return "", false
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
