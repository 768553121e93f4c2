package devserver

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"garden/internal/logging"
	"garden/internal/services"
)

// DefaultNotFoundPage is the 404 page looked up under the root.
const DefaultNotFoundPage = "404.html"

const notFoundFallback = "File not found"

// Handler serves files below a root directory.
type Handler struct {
	root         string
	notFoundPage string
	files        http.Handler
	logger       *slog.Logger
}

// NewHandler builds a handler for root. notFoundPage is relative to root; an
// empty value uses DefaultNotFoundPage.
func NewHandler(root, notFoundPage string, logger *slog.Logger) *Handler {
	if strings.TrimSpace(notFoundPage) == "" {
		notFoundPage = DefaultNotFoundPage
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		root:         root,
		notFoundPage: notFoundPage,
		files:        http.FileServer(http.Dir(root)),
		logger:       logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	r = r.WithContext(ctx)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	h.serve(rec, r)

	logging.WithContext(ctx, h.logger).Debug("request served",
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path),
		logging.Int("status", rec.status),
		logging.Duration("duration", time.Since(start)),
	)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Unsupported method", http.StatusNotImplemented)
		return
	}

	if rewritten, ok := h.rewrite(r.URL.Path); ok {
		h.serveFile(w, r, rewritten)
		return
	}

	interceptor := &notFoundInterceptor{ResponseWriter: w}
	h.files.ServeHTTP(interceptor, r)
	if interceptor.intercepted {
		h.serveNotFound(w, r)
	}
}

// rewrite maps an extensionless path without a trailing slash to path+".html"
// when that file exists under the root.
func (h *Handler) rewrite(urlPath string) (string, bool) {
	if strings.Contains(urlPath, ".") || strings.HasSuffix(urlPath, "/") {
		return "", false
	}
	candidate := path.Clean("/"+urlPath) + ".html"
	info, err := os.Stat(h.localPath(candidate))
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return candidate, true
}

// serveFile writes the file at urlPath directly. http.FileServer would
// redirect /index.html to /, which a rewritten /index must not do.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, urlPath string) {
	file, err := os.Open(h.localPath(urlPath))
	if err != nil {
		h.serveNotFound(w, r)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		h.serveNotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	for _, key := range []string{"Content-Type", "Content-Length", "X-Content-Type-Options", "Last-Modified", "Etag"} {
		header.Del(key)
	}
	body, err := os.ReadFile(filepath.Join(h.root, filepath.FromSlash(h.notFoundPage)))
	if err != nil {
		header.Set("Content-Type", "text/plain; charset=utf-8")
		body = []byte(notFoundFallback)
	} else {
		header.Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (h *Handler) localPath(urlPath string) string {
	return filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+urlPath)))
}

// notFoundInterceptor swallows a 404 response from the wrapped handler so the
// custom page can be written instead.
type notFoundInterceptor struct {
	http.ResponseWriter
	intercepted bool
}

func (n *notFoundInterceptor) WriteHeader(code int) {
	if code == http.StatusNotFound {
		n.intercepted = true
		return
	}
	n.ResponseWriter.WriteHeader(code)
}

func (n *notFoundInterceptor) Write(b []byte) (int, error) {
	if n.intercepted {
		return len(b), nil
	}
	return n.ResponseWriter.Write(b)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
