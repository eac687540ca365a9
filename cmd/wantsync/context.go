package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sydlexius/wantsync/internal/config"
	"github.com/sydlexius/wantsync/internal/database"
	"github.com/sydlexius/wantsync/internal/encryption"
	"github.com/sydlexius/wantsync/internal/history"
	"github.com/sydlexius/wantsync/internal/logging"
	"github.com/sydlexius/wantsync/internal/provider"
	"github.com/sydlexius/wantsync/internal/provider/discogs"
)

// commandContext lazily builds the shared pieces a command needs.
type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logMgr *logging.Manager
	logger *slog.Logger

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg

		c.logMgr, c.logger = logging.NewManager(logging.Config{
			Level:          cfg.Logging.Level,
			Format:         cfg.Logging.Format,
			FilePath:       cfg.Logging.FilePath,
			FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
			FileMaxFiles:   cfg.Logging.FileMaxFiles,
			FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
		})
		if c.verbose != nil && *c.verbose {
			c.logMgr.SetVerbose(true)
		}
		c.logger.Debug("configuration loaded", slog.String("path", path), slog.String("logging", c.logMgr.Config().String()))
	})
	return c.config, c.configErr
}

// database opens and migrates the SQLite database once per invocation.
func (c *commandContext) database() (*sql.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.dbOnce.Do(func() {
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			c.dbErr = err
			return
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			c.dbErr = fmt.Errorf("running migrations: %w", err)
			return
		}
		c.db = db
	})
	return c.db, c.dbErr
}

func (c *commandContext) settings() (*provider.SettingsService, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	key, err := resolveEncryptionKey(cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("resolving encryption key: %w", err)
	}
	enc, _, err := encryption.NewEncryptor(key)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return provider.NewSettingsService(db, enc), nil
}

func (c *commandContext) historyService() (*history.Service, error) {
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	return history.NewService(db), nil
}

func (c *commandContext) adapter(settings *provider.SettingsService) *discogs.Adapter {
	cfg := c.config
	return discogs.New(provider.NewRateLimiterMap(), settings, c.logger,
		discogs.WithBaseURL(cfg.Discogs.BaseURL),
		discogs.WithUserAgent(cfg.Discogs.UserAgent),
		discogs.WithMaxSearchPages(cfg.Discogs.MaxSearchPages),
	)
}

func (c *commandContext) close() error {
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
		c.db = nil
	}
	if c.logMgr != nil {
		errs = append(errs, c.logMgr.Close())
		c.logMgr = nil
	}
	return errors.Join(errs...)
}
