// Package main hosts the garden CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging and the internal
// packages together: `fetch` runs the curation pipeline, `serve` starts the
// development server, and `manifest`, `cache`, `history` and `status` inspect
// what previous runs left behind.
//
// Exit status is 0 on success, 1 on any failure (including a fetch that
// matched no models) and 130 when interrupted.
package main
