package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"garden/internal/fileutil"
)

// Entry describes one published model.
type Entry struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	OptimizedPath string `json:"optimizedPath"`
}

// ErrInvalidID reports an id that cannot name a file inside the output
// directory.
var ErrInvalidID = errors.New("invalid model id")

// ValidateID rejects ids that are empty, contain a path separator or would
// resolve outside the directory they are joined to.
func ValidateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || !filepath.IsLocal(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// FileName is the payload file name for id.
func FileName(id, extension string) string {
	return id + "." + strings.TrimPrefix(extension, ".")
}

// NewEntry builds the entry for id using the public URLs of the output and
// optimized directories.
func NewEntry(id, extension, publicDir, outputDir, optimizedDir string) Entry {
	name := FileName(id, extension)
	return Entry{
		ID:            id,
		Path:          URLPath(publicDir, outputDir, name),
		OptimizedPath: URLPath(publicDir, optimizedDir, name),
	}
}

// URLPath maps dir/name to its URL under publicDir ("/" + relative path).
// A directory outside publicDir yields its absolute filesystem path.
func URLPath(publicDir, dir, name string) string {
	rel, err := filepath.Rel(publicDir, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Join(dir, name))
	}
	return path.Join("/", filepath.ToSlash(rel), name)
}

// Encode renders entries as pretty-printed JSON with a two-space indent.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write replaces the manifest at path with entries. Readers never observe a
// partially written file.
func Write(path string, entries []Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ErrNotFound is returned by Read when no manifest exists yet.
var ErrNotFound = errors.New("manifest not found")

// Read loads and schema-checks the manifest at path.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return entries, nil
}
