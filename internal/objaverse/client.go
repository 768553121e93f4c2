package objaverse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"garden/internal/fileutil"
	"garden/internal/logging"
	"garden/internal/objectstore"
	"garden/internal/services"
)

const (
	// DefaultBaseURL is the public Hugging Face mirror of the dataset.
	DefaultBaseURL     = "https://huggingface.co/datasets/allenai/objaverse/resolve/main"
	defaultUserAgent   = "garden/dev"
	defaultHTTPTimeout = 10 * time.Minute

	objectPathsFile = "object-paths.json.gz"
	metadataDir     = "metadata"

	stageName = "objaverse"
)

// ObjectIndex records payloads already present in the cache directory.
// *objectstore.Store satisfies it.
type ObjectIndex interface {
	GetObject(ctx context.Context, uid string) (objectstore.Object, bool, error)
	PutObject(ctx context.Context, obj objectstore.Object) error
}

// Config describes the dataset client configuration.
type Config struct {
	BaseURL    string
	HFToken    string
	UserAgent  string
	CacheDir   string
	HTTPClient *http.Client
	// Index is optional. Without it any payload already on disk is reused.
	Index ObjectIndex
	// Progress is called after each object in LoadObjects settles.
	Progress func(done, total int)
	Logger   *slog.Logger
	Now      func() time.Time
}

// Client downloads annotations and payloads, caching every file locally.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	cacheDir  string
	http      *http.Client
	index     ObjectIndex
	progress  func(done, total int)
	logger    *slog.Logger
	now       func() time.Time

	objectPaths map[string]string
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	cacheDir := strings.TrimSpace(cfg.CacheDir)
	if cacheDir == "" {
		return nil, errors.New("objaverse: cache directory is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("objaverse: parse base url: %w", err)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:   baseURL,
		token:     strings.TrimSpace(cfg.HFToken),
		userAgent: userAgent,
		cacheDir:  cacheDir,
		http:      client,
		index:     cfg.Index,
		progress:  cfg.Progress,
		logger:    logging.NewComponentLogger(cfg.Logger, stageName),
		now:       now,
	}, nil
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL    string
	Status string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Status, e.Body)
}

// Ping issues a HEAD request for the object-path index to confirm the
// dataset is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := c.baseURL.JoinPath(objectPathsFile).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return fmt.Errorf("objaverse: build head request: %w", err)
	}
	c.applyHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, stageName, "ping", "dataset unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return services.Wrap(services.ErrTransport, stageName, "ping", "",
			&StatusError{URL: endpoint, Status: resp.Status, Code: resp.StatusCode})
	}
	return nil
}

// BaseURL returns the dataset root the client reads from.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// get opens a streaming GET for rel under the base URL. The caller closes the body.
func (c *Client) get(ctx context.Context, rel string) (io.ReadCloser, error) {
	endpoint := c.baseURL.JoinPath(strings.Split(rel, "/")...).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.applyHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			URL:    endpoint,
			Status: resp.Status,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	return resp.Body, nil
}

// download streams rel into the cache directory and returns the local path,
// size and SHA-256 digest.
func (c *Client) download(ctx context.Context, rel string) (string, int64, string, error) {
	local, err := c.cachePath(rel)
	if err != nil {
		return "", 0, "", err
	}
	body, err := c.get(ctx, rel)
	if err != nil {
		return "", 0, "", services.Wrap(services.ErrTransport, stageName, "download", rel, err)
	}
	defer body.Close()
	size, digest, err := fileutil.WriteStreamAtomic(local, body, 0o644)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", 0, "", ctxErr
		}
		return "", 0, "", services.Wrap(services.ErrTransport, stageName, "download", rel, err)
	}
	return local, size, digest, nil
}

// fetchCached returns the local copy of rel, downloading it on first use.
func (c *Client) fetchCached(ctx context.Context, rel string) (string, error) {
	local, err := c.cachePath(rel)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(local); statErr == nil && info.Mode().IsRegular() {
		c.logger.Debug("dataset file cached", logging.String("file", rel))
		return local, nil
	}
	c.logger.Debug("downloading dataset file", logging.String("file", rel))
	path, _, _, err := c.download(ctx, rel)
	return path, err
}

func (c *Client) cachePath(rel string) (string, error) {
	clean := filepath.FromSlash(rel)
	if !filepath.IsLocal(clean) {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve path", fmt.Sprintf("refusing non-local path %q", rel), nil)
	}
	return filepath.Join(c.cacheDir, clean), nil
}
