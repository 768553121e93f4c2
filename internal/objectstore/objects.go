package objectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Object records a payload downloaded into the dataset cache.
type Object struct {
	UID       string    `json:"uid"`
	RelPath   string    `json:"rel_path"`
	SizeBytes int64     `json:"size_bytes"`
	SHA256    string    `json:"sha256"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PutObject inserts or replaces the index entry for obj.UID.
func (s *Store) PutObject(ctx context.Context, obj Object) error {
	obj.UID = strings.TrimSpace(obj.UID)
	if obj.UID == "" {
		return errors.New("objectstore: object uid is empty")
	}
	if obj.FetchedAt.IsZero() {
		obj.FetchedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO objects (uid, rel_path, size_bytes, sha256, fetched_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(uid) DO UPDATE SET
            rel_path = excluded.rel_path,
            size_bytes = excluded.size_bytes,
            sha256 = excluded.sha256,
            fetched_at = excluded.fetched_at`,
		obj.UID, obj.RelPath, obj.SizeBytes, obj.SHA256, formatTime(obj.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", obj.UID, err)
	}
	return nil
}

// GetObject returns the index entry for uid, if any.
func (s *Store) GetObject(ctx context.Context, uid string) (Object, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT uid, rel_path, size_bytes, sha256, fetched_at FROM objects WHERE uid = ?`, uid)
	obj, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, false, nil
	}
	if err != nil {
		return Object{}, false, fmt.Errorf("get object %s: %w", uid, err)
	}
	return obj, true, nil
}

// ListObjects returns every indexed object, most recently fetched first.
func (s *Store) ListObjects(ctx context.Context) ([]Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, rel_path, size_bytes, sha256, fetched_at FROM objects ORDER BY fetched_at DESC, uid`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

// DeleteObjects drops the index entries for uids and reports how many rows
// were removed. With no uids every entry is removed.
func (s *Store) DeleteObjects(ctx context.Context, uids ...string) (int64, error) {
	if len(uids) == 0 {
		res, err := s.execWithRetry(ctx, `DELETE FROM objects`)
		if err != nil {
			return 0, fmt.Errorf("clear objects: %w", err)
		}
		return res.RowsAffected()
	}
	var removed int64
	for _, uid := range uids {
		res, err := s.execWithRetry(ctx, `DELETE FROM objects WHERE uid = ?`, uid)
		if err != nil {
			return removed, fmt.Errorf("delete object %s: %w", uid, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (Object, error) {
	var (
		obj       Object
		fetchedAt string
	)
	if err := row.Scan(&obj.UID, &obj.RelPath, &obj.SizeBytes, &obj.SHA256, &fetchedAt); err != nil {
		return Object{}, err
	}
	if ts, err := parseTimeString(fetchedAt); err == nil {
		obj.FetchedAt = ts
	}
	return obj, nil
}
