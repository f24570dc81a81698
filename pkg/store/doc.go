/*
Package store is the SQLite persistence layer for Quill templates, rendered
documents, and export records.

SetupSchema creates the three tables idempotently. New prepares every statement
the store uses up front, so a Store must be released with Close. All operations
take a context and are all-or-nothing: multi-statement operations such as
UpsertTemplate and RecordExport run inside a single transaction.

Lookups of a missing row return an error wrapping sql.ErrNoRows.
*/
package store
