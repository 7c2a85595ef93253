package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/olcatalog/internal/cache"
	"github.com/lepinkainen/olcatalog/internal/config"
	"github.com/lepinkainen/olcatalog/internal/datastore"
	"github.com/lepinkainen/olcatalog/internal/openlibrary"
	"github.com/lepinkainen/olcatalog/internal/pipeline"
	"github.com/lepinkainen/olcatalog/internal/tablestore"
	"github.com/spf13/viper"
)

var (
	newSource   = newOpenLibrarySource
	currentYear = func() int { return time.Now().Year() }
)

// RunCmd represents the default load command
type RunCmd struct {
	Search      string `short:"s" help:"Open Library search query (defaults to search from config, subject:horses)"`
	Limit       int    `short:"n" help:"Maximum number of search results to fetch (defaults to limit from config, 20)"`
	DataDir     string `name:"data-dir" help:"Directory holding authors.csv, books.csv and book_subjects.csv" type:"path"`
	DryRun      bool   `name:"dry-run" help:"Run everything except writing the tables"`
	Cache       bool   `help:"Cache search responses in SQLite"`
	CacheDB     string `name:"cache-db" help:"Path to cache SQLite database file"`
	SQLite      bool   `name:"sqlite" help:"Mirror the tables into a SQLite database after saving"`
	SQLiteDB    string `name:"sqlite-db" help:"Path to the SQLite mirror database file"`
	SummaryFile string `name:"summary-file" help:"Also write the run summary as YAML to this file" type:"path"`
}

// resolve overlays the flags that were given on top of cfg.
func (r *RunCmd) resolve(cfg config.Config) config.Config {
	if r.Search != "" {
		cfg.Search = r.Search
	}
	if r.Limit > 0 {
		cfg.Limit = r.Limit
	}
	if r.DataDir != "" {
		cfg.DataDir = r.DataDir
	}
	if r.Cache {
		cfg.Cache.Enabled = true
	}
	if r.CacheDB != "" {
		cfg.Cache.DBFile = r.CacheDB
	}
	if r.SQLite {
		cfg.SQLite.Enabled = true
	}
	if r.SQLiteDB != "" {
		cfg.SQLite.DBFile = r.SQLiteDB
	}
	if r.SummaryFile != "" {
		cfg.SummaryFile = r.SummaryFile
	}
	return cfg
}

func (r *RunCmd) Run(ctx context.Context) error {
	cfg := r.resolve(config.Load(viper.GetViper()))
	return runPipeline(ctx, cfg, r.DryRun)
}

func runPipeline(ctx context.Context, cfg config.Config, dryRun bool) error {
	if !dryRun {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	var cacheDB *cache.CacheDB
	if cfg.Cache.Enabled {
		db, err := cache.Open(cfg.Cache.DBFile)
		if err != nil {
			slog.Warn("Search cache unavailable, continuing without it", "db", cfg.Cache.DBFile, "error", err)
		} else {
			cacheDB = db
			defer func() { _ = cacheDB.Close() }()
		}
	}

	var mirror pipeline.Mirror
	if cfg.SQLite.Enabled && !dryRun {
		store := datastore.NewSQLiteStore(cfg.SQLite.DBFile)
		if err := store.Connect(); err != nil {
			slog.Error("SQLite mirror unavailable, continuing without it", "db", cfg.SQLite.DBFile, "error", err)
			_ = store.Close()
		} else {
			mirror = store
			defer func() { _ = store.Close() }()
		}
	}

	p := pipeline.New(newSource(cfg, cacheDB), tablestore.New(cfg.DataDir), mirror)
	summary, err := p.Run(ctx, pipeline.Options{
		Query:       cfg.Search,
		Limit:       cfg.Limit,
		CurrentYear: currentYear(),
		DryRun:      dryRun,
	})
	if err != nil {
		return err
	}

	if err := summary.WriteText(stdout); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	if cfg.SummaryFile != "" {
		if err := summary.WriteYAMLFile(cfg.SummaryFile); err != nil {
			return err
		}
		slog.Info("Wrote summary file", "path", cfg.SummaryFile)
	}
	return nil
}

func newOpenLibrarySource(cfg config.Config, cacheDB *cache.CacheDB) pipeline.Source {
	opts := []openlibrary.Option{
		openlibrary.WithBaseURL(cfg.OpenLibrary.BaseURL),
		openlibrary.WithUserAgent(cfg.OpenLibrary.UserAgent),
		openlibrary.WithTimeout(cfg.OpenLibrary.Timeout),
		openlibrary.WithRateLimit(cfg.OpenLibrary.RequestsPerSecond),
	}
	if cacheDB != nil {
		opts = append(opts, openlibrary.WithCache(cacheDB, cfg.Cache.TTL))
	}
	return openlibrary.NewClient(opts...)
}
