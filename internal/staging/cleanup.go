package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"garden/internal/logging"
	"garden/internal/objectstore"
)

// Index lists and forgets cached payloads. *objectstore.Store satisfies it.
type Index interface {
	ListObjects(ctx context.Context) ([]objectstore.Object, error)
	DeleteObjects(ctx context.Context, uids ...string) (int64, error)
}

// CleanResult contains the outcome of a cleanup pass.
type CleanResult struct {
	Removed []string       `json:"removed"`
	Bytes   int64          `json:"bytes"`
	Errors  []CleanupError `json:"errors,omitempty"`
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string `json:"path"`
	Error error  `json:"-"`
}

// CleanStale removes payloads fetched before now-maxAge together with their
// index records. Records whose file cannot be removed are kept.
func CleanStale(ctx context.Context, idx Index, cacheDir string, maxAge time.Duration, now time.Time, logger *slog.Logger) (CleanResult, error) {
	result := CleanResult{}
	if logger == nil {
		logger = logging.NewNop()
	}
	cacheDir = strings.TrimSpace(cacheDir)
	if cacheDir == "" {
		return result, nil
	}

	objects, err := idx.ListObjects(ctx)
	if err != nil {
		return result, err
	}

	cutoff := now.Add(-maxAge)
	var forget []string
	for _, obj := range objects {
		if !obj.FetchedAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(cacheDir, filepath.FromSlash(obj.RelPath))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale payload", "cache_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		forget = append(forget, obj.UID)
		result.Removed = append(result.Removed, path)
		result.Bytes += obj.SizeBytes
		logger.Info("removed stale payload",
			logging.String("uid", obj.UID),
			logging.Duration("age", now.Sub(obj.FetchedAt)),
			logging.String(logging.FieldEventType, "cache_cleanup"),
		)
	}

	if len(forget) > 0 {
		if _, err := idx.DeleteObjects(ctx, forget...); err != nil {
			return result, err
		}
	}
	return result, nil
}

// CleanOrphaned removes payload files under dir that no index record points
// at, such as files left behind when an index write failed.
func CleanOrphaned(ctx context.Context, idx Index, cacheDir, dir string, logger *slog.Logger) (CleanResult, error) {
	result := CleanResult{}
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(cacheDir) == "" || strings.TrimSpace(dir) == "" {
		return result, nil
	}

	objects, err := idx.ListObjects(ctx)
	if err != nil {
		return result, err
	}
	known := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		known[filepath.Join(cacheDir, filepath.FromSlash(obj.RelPath))] = struct{}{}
	}

	root := filepath.Join(cacheDir, dir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := known[path]; ok {
			return nil
		}
		info, infoErr := d.Info()
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove orphaned payload", "cache_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
			)
			return nil
		}
		if infoErr == nil {
			result.Bytes += info.Size()
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed orphaned payload",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "cache_cleanup"),
		)
		return nil
	})
	return result, err
}
