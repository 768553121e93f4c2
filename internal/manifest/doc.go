// Package manifest reads, writes and checks the model manifest consumed by the
// garden scene.
//
// The manifest is a JSON array of {id, path, optimizedPath} records. Paths are
// public URLs rooted at the web project's public directory. The file is
// rewritten in full on every curation run and always replaced atomically.
package manifest
