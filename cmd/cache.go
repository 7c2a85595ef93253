package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/olcatalog/internal/cache"
	"github.com/lepinkainen/olcatalog/internal/config"
	"github.com/spf13/viper"
)

// CacheCmd groups the cache maintenance commands
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove all cached search responses"`
	Prune CachePruneCmd `cmd:"" help:"Remove cached search responses older than the cache TTL"`
}

// CacheFlags are shared by the cache subcommands
type CacheFlags struct {
	DB string `name:"db" help:"Path to cache SQLite database file (defaults to cache.dbfile from config)"`
}

func (f CacheFlags) open() (*cache.CacheDB, config.Config, error) {
	cfg := config.Load(viper.GetViper())
	if f.DB != "" {
		cfg.Cache.DBFile = f.DB
	}

	db, err := cache.Open(cfg.Cache.DBFile)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open cache: %w", err)
	}
	return db, cfg, nil
}

// CacheClearCmd removes every cached response
type CacheClearCmd struct {
	CacheFlags `embed:""`
}

func (c *CacheClearCmd) Run() error {
	db, cfg, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := db.ClearAll(cache.SearchCacheTable)
	if err != nil {
		return err
	}
	slog.Info("Cleared search cache", "db", cfg.Cache.DBFile, "removed", removed)
	return nil
}

// CachePruneCmd removes expired cached responses
type CachePruneCmd struct {
	CacheFlags `embed:""`
}

func (c *CachePruneCmd) Run() error {
	db, cfg, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := db.ClearExpired(cache.SearchCacheTable, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	slog.Info("Pruned search cache", "db", cfg.Cache.DBFile, "ttl", cfg.Cache.TTL, "removed", removed)
	return nil
}
