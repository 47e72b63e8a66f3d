package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"cardex/internal/assets"
	"cardex/internal/config"
	"cardex/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger from config; failures degrade to a
// no-op logger so output helpers never nil-check.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// fetcher returns the remote-asset fetcher configured for container builds,
// or nil when fetching is disabled.
func (c *commandContext) fetcher() assets.Fetcher {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.Fetch.Enabled {
		return nil
	}
	return assets.NewHTTPFetcher(
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		assets.WithUserAgent(cfg.Fetch.UserAgent),
		assets.WithMaxBytes(int64(cfg.Fetch.MaxMiB)<<20),
	)
}
