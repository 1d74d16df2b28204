package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"unlinkmkv/internal/config"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/mkvtool"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
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
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewForPaths(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}

func (c *commandContext) newTools(logger *slog.Logger) (*mkvtool.Tools, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	bins := mkvtool.Binaries{
		Merge:    cfg.Tools.Merge,
		Extract:  cfg.Tools.Extract,
		Info:     cfg.Tools.Info,
		PropEdit: cfg.Tools.PropEdit,
		FFmpeg:   cfg.Tools.FFmpeg,
	}
	return mkvtool.New(bins, cfg.Tools.Locale, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
