package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateCuration(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validatePaths() error {
	if filepath.Clean(c.Paths.OutputDir) == filepath.Clean(c.Paths.PublicDir) {
		return errors.New("paths.output_dir must be a subdirectory of paths.public_dir, not the same directory")
	}
	if filepath.Dir(c.Paths.ManifestPath) == filepath.Clean(c.Paths.OutputDir) {
		return errors.New("paths.manifest_path must not live inside paths.output_dir")
	}
	return nil
}

func (c *Config) validateDataset() error {
	parsed, err := url.Parse(c.Dataset.BaseURL)
	if err != nil {
		return fmt.Errorf("dataset.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("dataset.base_url must use http or https, got %q", c.Dataset.BaseURL)
	}
	return nil
}

func (c *Config) validateCuration() error {
	if err := ensurePositiveMap(map[string]int{
		"curation.pool_size":   c.Curation.PoolSize,
		"curation.target_size": c.Curation.TargetSize,
	}); err != nil {
		return err
	}
	if c.Curation.TargetSize > c.Curation.PoolSize {
		return fmt.Errorf("curation.target_size (%d) must not exceed curation.pool_size (%d)", c.Curation.TargetSize, c.Curation.PoolSize)
	}
	if len(c.Curation.TargetTags) == 0 {
		return errors.New("curation.target_tags must include at least one tag")
	}
	if strings.ContainsAny(c.Curation.Extension, `/\`) {
		return fmt.Errorf("curation.extension %q must not contain path separators", c.Curation.Extension)
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.ContainsAny(c.Server.NotFoundPage, `\`) || strings.Contains(c.Server.NotFoundPage, "..") {
		return fmt.Errorf("server.not_found_page %q must be a path inside server.root", c.Server.NotFoundPage)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
