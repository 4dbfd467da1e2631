// Package cli implements the server's command line commands.
package cli

import (
	"fmt"

	"github.com/atomichabits/internal/config"
	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/logger"
)

// Context is passed to every command's Run method.
type Context struct {
	ConfigPath string
}

// setup loads configuration and opens the logger and database shared by all commands.
func (ctx *Context) setup() (config.AppConfig, error) {
	cfg, err := config.Load(ctx.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.LogDebug, LogDir: cfg.LogDir}); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return cfg, fmt.Errorf("init database: %w", err)
	}
	return cfg, nil
}
