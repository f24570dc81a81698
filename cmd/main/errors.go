package main

import (
	"errors"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/CTAG07/Quill/pkg/engine"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process exit code and an optional hint line.
type exitError struct {
	code int
	err  error
	hint string
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

func withHint(err error, hint string) error {
	return &exitError{code: exitFailure, err: err, hint: hint}
}

// suggest returns up to three names that fuzzily match name.
func suggest(name string, names []string) []string {
	matches := fuzzy.Find(name, names)
	var out []string
	for _, m := range matches {
		if m.Str == name {
			continue
		}
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// templateHint builds a "did you mean" line for an unknown template name.
func templateHint(err error, known []string) string {
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "template" {
		return ""
	}
	if s := suggest(nf.Ref, known); len(s) > 0 {
		return "Did you mean: " + strings.Join(s, ", ") + "?"
	}
	return ""
}
