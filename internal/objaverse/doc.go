// Package objaverse reads the public Objaverse dataset over HTTP.
//
// The dataset is laid out as an index file (object-paths.json.gz) mapping
// every uid to its payload path, metadata shards (metadata/<shard>.json.gz)
// holding annotations, and the payloads themselves (glbs/<shard>/<uid>.glb).
// Every downloaded file is kept under the client's cache directory and reused
// on later runs.
//
// Annotations preserve corpus order: shards are read in sorted order and the
// keys of each shard are decoded in the order they appear in the document.
package objaverse
