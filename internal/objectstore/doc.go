// Package objectstore persists the local Objaverse object index and the
// history of curation runs in SQLite.
//
// The object index lets repeated `garden fetch` runs reuse payloads already
// downloaded into the dataset cache; the cached file is only trusted when its
// size on disk still matches the recorded size. Run records capture the
// counts each pipeline stage produced so `garden history` can show how the
// manifest evolved.
//
// The database lives at <cache_dir>/garden.db. Schema changes bump
// schemaVersion; an older database must be removed with `garden cache clear
// --purge`.
package objectstore
