package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/stake-plus/newsfilter/src/ai/core"
	_ "github.com/stake-plus/newsfilter/src/ai/openai"
	"github.com/stake-plus/newsfilter/src/catalog"
	"github.com/stake-plus/newsfilter/src/config"
	"github.com/stake-plus/newsfilter/src/data"
	"github.com/stake-plus/newsfilter/src/dedup"
	"github.com/stake-plus/newsfilter/src/factcheck"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the long-lived collaborators shared by the commands.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	catalog *catalog.Catalog
	closers []func() error
}

// openApp connects MySQL when configured, re-reads the configuration with the
// settings table on top and loads the source catalog.
func openApp(ctx context.Context, base *config.Config) (*app, error) {
	a := &app{cfg: base}

	if base.Storage.MySQLDSN != "" {
		db, err := data.ConnectMySQL(base.Storage.MySQLDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		a.db = db
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		if err := data.Migrate(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		settings, err := data.LoadSettings(ctx, db)
		if err != nil {
			a.Close()
			return nil, err
		}
		if a.cfg, err = config.Load(configPath, settings); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("settings loaded from database", zap.Int("rows", len(settings)))
	}

	cat, err := a.loadCatalog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = cat
	return a, nil
}

func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if path := a.cfg.Pipeline.CatalogPath; path != "" {
		var err error
		if cat, err = catalog.LoadFile(path, logger); err != nil {
			return nil, err
		}
	}
	if a.db != nil {
		if err := cat.Load(ctx, data.NewCatalogStore(a.db)); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// pipeline builds the LLM client and the filter pipeline. The configuration must be
// valid.
func (a *app) pipeline() (*factcheck.Pipeline, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	fc := a.cfg.FactoryConfig()
	fc.Logger = logger
	client, err := core.NewClient(fc)
	if err != nil {
		return nil, err
	}
	return factcheck.New(client, a.catalog, a.cfg.FactcheckSettings(), logger), nil
}

// dedupSet returns a redis-backed set when REDIS_URL is configured and an in-memory
// one otherwise.
func (a *app) dedupSet(ctx context.Context) (dedup.Set, error) {
	if a.cfg.Storage.RedisURL == "" {
		return dedup.NewMemorySet(a.cfg.Dedup.Capacity), nil
	}
	rdb, err := dedup.NewRedis(a.cfg.Storage.RedisURL)
	if err != nil {
		return nil, err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)
	return dedup.NewRedisSet(rdb, a.cfg.DedupWindow()), nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
