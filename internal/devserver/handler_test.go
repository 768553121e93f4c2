package devserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":           "<h1>home</h1>",
		"about.html":           "<h1>about</h1>",
		"garden/index.html":    "<h1>garden</h1>",
		"garden.html":          "<h1>garden page</h1>",
		"models/manifest.json": "[]",
		"404.html":             "<h1>lost</h1>",
		"docs/readme":          "plain",
	}
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func do(t *testing.T, h http.Handler, method, target string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestHandlerRewritesExtensionlessPaths(t *testing.T) {
	h := NewHandler(newTestRoot(t), "", nil)

	tests := []struct {
		target string
		status int
		body   string
	}{
		{target: "/about", status: http.StatusOK, body: "<h1>about</h1>"},
		{target: "/about?utm=1", status: http.StatusOK, body: "<h1>about</h1>"},
		{target: "/index", status: http.StatusOK, body: "<h1>home</h1>"},
		{target: "/garden", status: http.StatusOK, body: "<h1>garden page</h1>"},
		{target: "/garden/", status: http.StatusOK, body: "<h1>garden</h1>"},
		{target: "/about.html", status: http.StatusOK, body: "<h1>about</h1>"},
		{target: "/models/manifest.json", status: http.StatusOK, body: "[]"},
	}
	for _, tc := range tests {
		resp, body := do(t, h, http.MethodGet, tc.target)
		if resp.StatusCode != tc.status || body != tc.body {
			t.Fatalf("%s: got %d %q, want %d %q", tc.target, resp.StatusCode, body, tc.status, tc.body)
		}
	}
}

func TestHandlerServesExtensionlessFileWithoutHTMLTwin(t *testing.T) {
	h := NewHandler(newTestRoot(t), "", nil)
	resp, body := do(t, h, http.MethodGet, "/docs/readme")
	if resp.StatusCode != http.StatusOK || body != "plain" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
}

func TestHandlerCustomNotFound(t *testing.T) {
	root := newTestRoot(t)
	h := NewHandler(root, "404.html", nil)

	resp, body := do(t, h, http.MethodGet, "/missing.js")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body != "<h1>lost</h1>" {
		t.Fatalf("unexpected body %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	// The page is read on every request.
	if err := os.WriteFile(filepath.Join(root, "404.html"), []byte("<h1>updated</h1>"), 0o644); err != nil {
		t.Fatalf("rewrite 404 page: %v", err)
	}
	_, body = do(t, h, http.MethodGet, "/nowhere")
	if body != "<h1>updated</h1>" {
		t.Fatalf("expected fresh 404 page, got %q", body)
	}
}

func TestHandlerNotFoundFallback(t *testing.T) {
	root := newTestRoot(t)
	if err := os.Remove(filepath.Join(root, "404.html")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	h := NewHandler(root, "", nil)
	resp, body := do(t, h, http.MethodGet, "/missing")
	if resp.StatusCode != http.StatusNotFound || body != "File not found" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestHandlerHeadNotFoundHasNoBody(t *testing.T) {
	h := NewHandler(newTestRoot(t), "", nil)
	resp, body := do(t, h, http.MethodHead, "/missing")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
}

func TestHandlerRejectsUnsupportedMethods(t *testing.T) {
	h := NewHandler(newTestRoot(t), "", nil)
	resp, _ := do(t, h, http.MethodPost, "/about")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestHandlerDoesNotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.html"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := NewHandler(root, "", nil)
	resp, body := do(t, h, http.MethodGet, "/../secret")
	if resp.StatusCode == http.StatusOK || strings.Contains(body, "secret") {
		t.Fatalf("served file outside root: %d %q", resp.StatusCode, body)
	}
}
