package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified copies src to dst through a temp file, then reads dst back
// and compares its size and SHA-256 with the source. It returns the number of
// bytes copied. An existing dst is replaced; on any failure dst is left absent
// and no partial file remains.
func CopyFileVerified(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	written, srcDigest, err := WriteStreamAtomic(dst, in, 0o644)
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	dstDigest, dstSize, err := HashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("verify copy: %w", err)
	}
	if dstSize != written || dstDigest != srcDigest {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy hash mismatch: %s differs from %s", dst, src)
	}
	return written, nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	_, _, err := WriteStreamAtomic(path, bytes.NewReader(data), perm)
	return err
}

// WriteStreamAtomic copies r into path via a temp file in the same directory.
// It returns the byte count and hex SHA-256 of what was written. The temp file
// is removed on any failure, including a read error from r.
func WriteStreamAtomic(path string, r io.Reader, perm os.FileMode) (int64, string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return 0, "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (int64, string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, "", err
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return fail(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(fmt.Errorf("chmod temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, "", fmt.Errorf("rename temp file: %w", err)
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashFile returns the hex SHA-256 and size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}
