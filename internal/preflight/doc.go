// Package preflight provides readiness checks for the filesystem paths and
// the dataset endpoint garden depends on.
//
// The CLI "garden status" command runs RunAll and renders one status line per
// result; "garden fetch" runs the same checks before starting a run and
// refuses to start when a required check fails.
package preflight
