// Package devserver serves the static web project during development.
//
// Requests are served from a root directory with http.FileServer plus two
// additions: extensionless paths are rewritten to the matching .html file when
// one exists (so /about serves about.html), and every 404 is answered with a
// custom page read from disk on each request, falling back to a plain-text
// "File not found" body when the page is absent.
package devserver
