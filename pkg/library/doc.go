/*
Package library moves templates in and out of a Quill store in bulk.

Bundles are YAML files holding a list of templates, used for backup and for
copying templates between stores. Importing a bundle goes through the
regular upsert path, so existing templates get a new version rather than
being replaced wholesale.

A Loader keeps the store in step with a directory of *.tmpl files. Sync
imports the directory once; Watch keeps re-importing files as they change
until its context is cancelled. A file's name without the extension is the
template name, and its parent directory, if any, is the category.
*/
package library
