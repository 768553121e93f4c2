package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeCuration()
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.public_dir", &c.Paths.PublicDir, defaultPublicDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.manifest_path", &c.Paths.ManifestPath, defaultManifestPath},
		{"paths.optimized_dir", &c.Paths.OptimizedDir, defaultOptimizedDir},
		{"paths.cache_dir", &c.Paths.CacheDir, defaultCacheDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeDataset() {
	if value, ok := os.LookupEnv("GARDEN_DATASET_URL"); ok && strings.TrimSpace(value) != "" {
		c.Dataset.BaseURL = value
	}
	c.Dataset.BaseURL = strings.TrimRight(strings.TrimSpace(c.Dataset.BaseURL), "/")
	if c.Dataset.BaseURL == "" {
		c.Dataset.BaseURL = defaultDatasetBaseURL
	}
	c.Dataset.HFToken = strings.TrimSpace(c.Dataset.HFToken)
	if c.Dataset.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Dataset.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Dataset.HFToken = strings.TrimSpace(value)
		}
	}
	c.Dataset.UserAgent = strings.TrimSpace(c.Dataset.UserAgent)
	if c.Dataset.UserAgent == "" {
		c.Dataset.UserAgent = defaultDatasetUserAgent
	}
	if c.Dataset.RequestTimeout <= 0 {
		c.Dataset.RequestTimeout = defaultDatasetTimeout
	}
}

func (c *Config) normalizeCuration() {
	tags := make([]string, 0, len(c.Curation.TargetTags))
	seen := make(map[string]struct{}, len(c.Curation.TargetTags))
	for _, tag := range c.Curation.TargetTags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
	}
	c.Curation.TargetTags = tags

	ext := strings.ToLower(strings.TrimSpace(c.Curation.Extension))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = defaultExtension
	}
	c.Curation.Extension = ext
	if c.Curation.MinFreeGiB < 0 {
		c.Curation.MinFreeGiB = 0
	}
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if strings.TrimSpace(c.Server.Root) == "" {
		c.Server.Root = defaultServerRoot
	}
	root, err := expandPath(strings.TrimSpace(c.Server.Root))
	if err != nil {
		return fmt.Errorf("server.root: %w", err)
	}
	c.Server.Root = root
	c.Server.NotFoundPage = strings.TrimSpace(c.Server.NotFoundPage)
	if c.Server.NotFoundPage == "" {
		c.Server.NotFoundPage = defaultServerNotFoundPage
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("GARDEN_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
