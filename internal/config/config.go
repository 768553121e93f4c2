package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the curator reads and writes.
type Paths struct {
	PublicDir    string `toml:"public_dir"`
	OutputDir    string `toml:"output_dir"`
	ManifestPath string `toml:"manifest_path"`
	OptimizedDir string `toml:"optimized_dir"`
	CacheDir     string `toml:"cache_dir"`
	LogDir       string `toml:"log_dir"`
}

// Dataset contains configuration for the Objaverse download endpoint.
type Dataset struct {
	BaseURL        string `toml:"base_url"`
	HFToken        string `toml:"hf_token"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Curation contains the selection knobs for `garden fetch`.
type Curation struct {
	PoolSize        int      `toml:"pool_size"`
	TargetSize      int      `toml:"target_size"`
	TargetTags      []string `toml:"target_tags"`
	Extension       string   `toml:"extension"`
	StrictDownloads bool     `toml:"strict_downloads"`
	MinFreeGiB      int      `toml:"min_free_gib"`
}

// Server contains configuration for the development file server.
type Server struct {
	Bind         string `toml:"bind"`
	Root         string `toml:"root"`
	NotFoundPage string `toml:"not_found_page"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for garden.
//
// Configuration sections by subsystem:
//   - Paths: public tree, curator output, manifest, cache and logs
//   - Dataset: Objaverse endpoint and credentials
//   - Curation: pool/target sizes, tag filter, download strictness
//   - Server: development server bind address and document root
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Dataset  Dataset  `toml:"dataset"`
	Curation Curation `toml:"curation"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/garden/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("garden.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories. The output tree is
// created by the curator itself so a failed run leaves no empty directories
// behind in the public tree.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatasetCacheDir is where downloaded Objaverse files are kept between runs.
func (c *Config) DatasetCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "objaverse")
}

// StorePath is the SQLite database holding the object index and run history.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.CacheDir, "garden.db")
}

// LogPath is the file every command appends its log records to.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "garden.log")
}

// LockPath is the lock file held for the duration of a fetch run.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "fetch.lock")
}

// DatasetTimeout converts the configured request timeout to a duration.
func (c *Config) DatasetTimeout() time.Duration {
	return time.Duration(c.Dataset.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
