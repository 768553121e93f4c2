package objaverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"

	"garden/internal/logging"
	"garden/internal/services"
)

// LoadObjectPaths returns the uid → payload path index. The index is read
// once per client.
func (c *Client) LoadObjectPaths(ctx context.Context) (map[string]string, error) {
	if c.objectPaths != nil {
		return c.objectPaths, nil
	}
	local, err := c.fetchCached(ctx, objectPathsFile)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string)
	err = readGzipFile(local, func(r io.Reader) error {
		return decodeOrderedObject(r, func(uid string, value json.RawMessage) error {
			var rel string
			if err := json.Unmarshal(value, &rel); err != nil {
				return fmt.Errorf("object path for %s: %w", uid, err)
			}
			paths[uid] = rel
			return nil
		})
	})
	if err != nil {
		_ = os.Remove(local)
		return nil, services.Wrap(services.ErrTransport, stageName, "decode object paths", objectPathsFile, err)
	}
	c.objectPaths = paths
	c.logger.Info("object path index loaded", logging.Int("objects", len(paths)))
	return paths, nil
}

// LoadAnnotations downloads (or reuses) every metadata shard and returns the
// annotations in corpus order.
func (c *Client) LoadAnnotations(ctx context.Context) (Annotations, error) {
	paths, err := c.LoadObjectPaths(ctx)
	if err != nil {
		return Annotations{}, err
	}
	shards := shardIDs(paths)
	c.logger.Info("loading annotations", logging.Int("shards", len(shards)))

	var annotations Annotations
	for _, shard := range shards {
		if err := ctx.Err(); err != nil {
			return Annotations{}, err
		}
		rel := path.Join(metadataDir, shard+".json.gz")
		local, err := c.fetchCached(ctx, rel)
		if err != nil {
			return Annotations{}, err
		}
		if err := readGzipFile(local, func(r io.Reader) error {
			return decodeAnnotationShard(r, &annotations)
		}); err != nil {
			// Drop the shard so the next run downloads it again.
			_ = os.Remove(local)
			return Annotations{}, services.Wrap(services.ErrTransport, stageName, "decode annotations", rel, err)
		}
	}
	c.logger.Info("annotations loaded", logging.Int("annotations", annotations.Len()))
	return annotations, nil
}

// shardIDs extracts the sorted, distinct shard names from payload paths of
// the form glbs/<shard>/<uid>.glb.
func shardIDs(paths map[string]string) []string {
	seen := make(map[string]struct{})
	for _, rel := range paths {
		parts := strings.Split(rel, "/")
		if len(parts) < 3 {
			continue
		}
		seen[parts[len(parts)-2]] = struct{}{}
	}
	shards := make([]string, 0, len(seen))
	for shard := range seen {
		shards = append(shards, shard)
	}
	slices.Sort(shards)
	return shards
}

func readGzipFile(path string, fn func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	zr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	return fn(zr)
}
