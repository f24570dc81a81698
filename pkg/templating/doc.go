/*
Package templating implements the flat placeholder language used by Quill
templates.

A placeholder is any `{{name}}` token; the name is everything between the braces
up to the first closing brace, trimmed of surrounding whitespace. There are no
loops, conditionals, filters, or nested templates: Extract lists the names a
template references, and Render substitutes them from a variable mapping in a
single, non-recursive pass. Rendering is all-or-nothing, so a template that
references a name absent from the mapping never produces partial output.
*/
package templating
