// Package curate implements the `garden fetch` pipeline.
//
// A run moves through five stages strictly in sequence:
//
//  1. annotations: load the dataset's annotation corpus
//  2. filter: keep uids with at least one target tag, in corpus order
//  3. sample: draw a bounded pool uniformly without replacement
//  4. download: fetch the pool and measure every payload on disk
//  5. publish: keep the smallest payloads, replace the output directory
//     contents and rewrite the manifest
//
// Nothing under the output directory is touched before the publish stage, so
// a run that fails earlier (including one that matches no models) leaves the
// previous selection and manifest in place. A run holds an exclusive file lock
// for its whole duration.
package curate
