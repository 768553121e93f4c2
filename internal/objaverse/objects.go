package objaverse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"garden/internal/logging"
	"garden/internal/objectstore"
	"garden/internal/services"
)

// Object is a payload available on the local filesystem.
type Object struct {
	ID   string
	Path string
}

// ObjectError records why a single identifier could not be retrieved.
type ObjectError struct {
	ID  string
	Err error
}

func (e ObjectError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ObjectError) Unwrap() error { return e.Err }

// Objects is the outcome of LoadObjects. Items keep the request order.
type Objects struct {
	Items  []Object
	Failed []ObjectError
}

// ErrUnknownObject reports a uid missing from the object-path index.
var ErrUnknownObject = errors.New("uid not present in object path index")

// ErrInvalidUID reports a uid that cannot be used as a file name.
var ErrInvalidUID = errors.New("uid is not a plain file name")

// LoadObjects retrieves every uid into the cache directory. A failure for one
// uid is recorded in Objects.Failed and the remaining uids continue;
// cancellation aborts the whole call.
func (c *Client) LoadObjects(ctx context.Context, uids []string) (Objects, error) {
	paths, err := c.LoadObjectPaths(ctx)
	if err != nil {
		return Objects{}, err
	}

	var result Objects
	for i, uid := range uids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		local, err := c.loadObject(ctx, uid, paths)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Failed = append(result.Failed, ObjectError{ID: uid, Err: err})
		} else {
			result.Items = append(result.Items, Object{ID: uid, Path: local})
		}
		if c.progress != nil {
			c.progress(i+1, len(uids))
		}
	}
	c.logger.Info("objects loaded",
		logging.Int("requested", len(uids)),
		logging.Int("loaded", len(result.Items)),
		logging.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (c *Client) loadObject(ctx context.Context, uid string, paths map[string]string) (string, error) {
	if uid == "" || strings.ContainsAny(uid, `/\`) || !filepath.IsLocal(uid) {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve object", fmt.Sprintf("%q", uid), ErrInvalidUID)
	}
	rel, ok := paths[uid]
	if !ok || rel == "" {
		return "", services.Wrap(services.ErrTransport, stageName, "resolve object", uid, ErrUnknownObject)
	}
	local, err := c.cachePath(rel)
	if err != nil {
		return "", err
	}
	if c.reusable(ctx, uid, local) {
		c.logger.Debug("object cached", logging.String("uid", uid))
		return local, nil
	}

	path, size, digest, err := c.download(ctx, rel)
	if err != nil {
		return "", err
	}
	if c.index != nil {
		record := objectstore.Object{UID: uid, RelPath: rel, SizeBytes: size, SHA256: digest, FetchedAt: c.now()}
		if err := c.index.PutObject(ctx, record); err != nil {
			logging.WarnWithContext(c.logger, "object index update failed", "object_index_failed",
				logging.String("uid", uid),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'garden cache clear' if the index keeps failing"),
				logging.String(logging.FieldImpact, "object will be downloaded again next run"),
			)
		}
	}
	c.logger.Debug("object downloaded", logging.String("uid", uid), logging.Int64("size_bytes", size))
	return path, nil
}

// reusable reports whether the payload at local can be used without
// downloading it again. With an index the recorded size must match the file.
func (c *Client) reusable(ctx context.Context, uid, local string) bool {
	info, err := os.Stat(local)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if c.index == nil {
		return true
	}
	record, ok, err := c.index.GetObject(ctx, uid)
	if err != nil || !ok {
		return false
	}
	return record.SizeBytes == info.Size()
}
