// Package services defines shared utilities consumed by the curation stages
// and the external dataset integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (empty result, transport, filesystem, validation) for exit codes and
//     run history.
//
// Use these helpers when wiring new stage logic so operational behaviour stays
// uniform across the pipeline.
package services
