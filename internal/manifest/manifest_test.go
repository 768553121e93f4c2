package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"garden/internal/manifest"
)

func TestNewEntryUsesPublicURLs(t *testing.T) {
	public := filepath.Join(string(filepath.Separator), "srv", "garden", "public")
	entry := manifest.NewEntry("abc", "glb", public,
		filepath.Join(public, "models", "raw"),
		filepath.Join(public, "models", "optimized"))

	want := manifest.Entry{ID: "abc", Path: "/models/raw/abc.glb", OptimizedPath: "/models/optimized/abc.glb"}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry (-want +got):\n%s", diff)
	}
}

func TestURLPathOutsidePublicDir(t *testing.T) {
	public := filepath.Join(string(filepath.Separator), "srv", "public")
	elsewhere := filepath.Join(string(filepath.Separator), "data", "models")
	got := manifest.URLPath(public, elsewhere, "x.glb")
	if got != "/data/models/x.glb" {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestEncodeFormat(t *testing.T) {
	data, err := manifest.Encode([]manifest.Entry{{ID: "a", Path: "/models/raw/a.glb", OptimizedPath: "/models/optimized/a.glb"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "[\n  {\n    \"id\": \"a\",\n    \"path\": \"/models/raw/a.glb\",\n    \"optimizedPath\": \"/models/optimized/a.glb\"\n  }\n]\n"
	if string(data) != want {
		t.Fatalf("unexpected encoding:\n%s", data)
	}

	empty, err := manifest.Encode(nil)
	if err != nil {
		t.Fatalf("Encode nil: %v", err)
	}
	if string(empty) != "[]\n" {
		t.Fatalf("expected empty array, got %q", empty)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "manifest.json")
	entries := []manifest.Entry{
		{ID: "b", Path: "/models/raw/b.glb", OptimizedPath: "/models/optimized/b.glb"},
		{ID: "a", Path: "/models/raw/a.glb", OptimizedPath: "/models/optimized/a.glb"},
	}
	if err := manifest.Write(path, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := manifest.Read(filepath.Join(t.TempDir(), "manifest.json"))
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		field   string
	}{
		{name: "valid", doc: `[{"id":"a","path":"/a.glb","optimizedPath":"/o/a.glb"}]`},
		{name: "empty array", doc: `[]`},
		{name: "not array", doc: `{"id":"a"}`, wantErr: true, field: "(root)"},
		{name: "missing field", doc: `[{"id":"a","path":"/a.glb"}]`, wantErr: true, field: "0"},
		{name: "relative path", doc: `[{"id":"a","path":"a.glb","optimizedPath":"/o/a.glb"}]`, wantErr: true, field: "0.path"},
		{name: "extra key", doc: `[{"id":"a","path":"/a","optimizedPath":"/b","size":3}]`, wantErr: true, field: "0"},
		{name: "empty id", doc: `[{"id":"","path":"/a","optimizedPath":"/b"}]`, wantErr: true, field: "0.id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := manifest.ValidateDocument([]byte(tc.doc))
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *manifest.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error at %q, got %v", tc.field, verr)
			}
		})
	}
}

func TestReadRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(`[{"id":1}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := manifest.Read(path)
	if err == nil || !strings.Contains(err.Error(), "manifest validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"0a1b2c", "model.v2", "with space"} {
		if err := manifest.ValidateID(id); err != nil {
			t.Fatalf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", ".", "..", "../x", "a/b", `a\b`, "/abs"} {
		if err := manifest.ValidateID(id); !errors.Is(err, manifest.ErrInvalidID) {
			t.Fatalf("ValidateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}
