package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"fmtd/internal/config"
	"fmtd/internal/history"
	"fmtd/internal/logging"
	"fmtd/internal/serverctl"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// withController assembles the full stack for one invocation: logger,
// history store, and the server controller. The history store stays
// best-effort; failing to open it degrades to no recording.
func (c *commandContext) withController(fn func(*serverctl.Controller) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(cfg)
		if err != nil {
			logger.Warn("history store unavailable", "error", err)
			hist = nil
		}
	}
	if hist != nil {
		defer hist.Close()
	}

	return fn(serverctl.New(cfg, hist, logger))
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	hist, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer hist.Close()
	return fn(hist)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
