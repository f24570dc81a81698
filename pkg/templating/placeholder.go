package templating

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches `{{` followed by anything except `}` followed by `}}`.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ErrMissingVariable is matched by every MissingVariableError.
var ErrMissingVariable = errors.New("missing template variable")

// MissingVariableError reports a placeholder whose name is not a key of the
// supplied variable mapping.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing template variable: '%s'", e.Name)
}

// Is lets errors.Is(err, ErrMissingVariable) match any MissingVariableError.
func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}

// Extract returns the distinct placeholder names referenced by content, in the
// order of their first occurrence. A template without placeholders yields an
// empty, non-nil slice.
func Extract(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Missing returns the placeholder names of content that have no entry in vars,
// in first-occurrence order.
func Missing(content string, vars map[string]string) []string {
	var missing []string
	for _, name := range Extract(content) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Render replaces every placeholder in content with its value from vars.
// If any placeholder is missing from vars, Render returns a *MissingVariableError
// naming the first one and an empty string. Substituted values are never
// scanned again, so a value that itself looks like `{{x}}` is kept verbatim.
func Render(content string, vars map[string]string) (string, error) {
	locs := placeholderPattern.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}

	var sb strings.Builder
	sb.Grow(len(content))
	last := 0
	for _, loc := range locs {
		name := strings.TrimSpace(content[loc[2]:loc[3]])
		value, ok := vars[name]
		if !ok {
			return "", &MissingVariableError{Name: name}
		}
		sb.WriteString(content[last:loc[0]])
		sb.WriteString(value)
		last = loc[1]
	}
	sb.WriteString(content[last:])
	return sb.String(), nil
}
