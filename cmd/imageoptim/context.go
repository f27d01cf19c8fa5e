package main

import (
	"log/slog"

	"imageoptim/internal/config"
	"imageoptim/internal/engine"
	"imageoptim/internal/logging"
)

// commandContext carries the persistent flags and lazily-built
// collaborators shared by the subcommands.
type commandContext struct {
	configPath  string
	verbose     bool
	threads     int
	allowLossy  bool
	skipMissing bool
	cacheDir    string

	cfg    *config.Config
	logger *slog.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	var inline []string
	if c.configPath != "" {
		inline = append(inline, c.configPath)
	}
	cfg, err := config.Load(inline...)
	if err != nil {
		return nil, err
	}

	if c.threads > 0 {
		cfg.Threads = c.threads
	}
	if c.allowLossy {
		cfg.AllowLossy = true
	}
	if c.skipMissing {
		cfg.SkipMissingWorkers = true
	}
	if c.cacheDir != "" {
		cfg.CacheDir = c.cacheDir
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}

	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) newEngine() (*engine.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, logger)
}
