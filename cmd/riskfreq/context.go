package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cognicore/riskfreq/internal/logging"
	"github.com/cognicore/riskfreq/pkg/riskfreq/config"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store/postgres"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store/sqlite"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

// ensureConfig loads the config file once, or the defaults when no file is
// given. Log flags override the file.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Default()
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				c.configErr = fmt.Errorf("load config: %w", err)
				return
			}
			cfg = loaded
		}
		if v := strings.TrimSpace(*c.logLevel); v != "" {
			cfg.Log.Level = v
		}
		if v := strings.TrimSpace(*c.logFormat); v != "" {
			cfg.Log.Format = v
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: w})
}

// openStore opens the configured ranking store. It returns nil for driver "none".
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return postgres.Open(ctx, cfg.DSN)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
