package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"garden/internal/config"
	"garden/internal/logging"
	"garden/internal/objaverse"
	"garden/internal/objectstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	store *objectstore.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// log returns the process logger, falling back to stderr-only logging when the
// log file cannot be opened.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger, _ = logging.NewFromConfig(nil)
		}
		c.logger = logger
	})
	return c.logger
}

// openStore opens the object store once per process. It is closed after the
// command finishes.
func (c *commandContext) openStore(ctx context.Context) (*objectstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := objectstore.Open(ctx, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) datasetClient(index objaverse.ObjectIndex, progress func(done, total int)) (*objaverse.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return objaverse.New(objaverse.Config{
		BaseURL:    cfg.Dataset.BaseURL,
		HFToken:    cfg.Dataset.HFToken,
		UserAgent:  cfg.Dataset.UserAgent,
		CacheDir:   cfg.DatasetCacheDir(),
		HTTPClient: &http.Client{Timeout: cfg.DatasetTimeout()},
		Index:      index,
		Progress:   progress,
		Logger:     c.log(),
	})
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
