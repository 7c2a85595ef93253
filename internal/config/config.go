// Package config resolves the pipeline settings from viper.
package config

import (
	"time"

	"github.com/lepinkainen/olcatalog/internal/cache"
	"github.com/lepinkainen/olcatalog/internal/openlibrary"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeySearch               = "search"
	KeyLimit                = "limit"
	KeyDataDir              = "datadir"
	KeyLogLevel             = "loglevel"
	KeyOpenLibraryBaseURL   = "openlibrary.baseurl"
	KeyOpenLibraryUserAgent = "openlibrary.useragent"
	KeyOpenLibraryTimeout   = "openlibrary.timeout"
	KeyOpenLibraryRateLimit = "openlibrary.ratelimit"
	KeyCacheEnabled         = "cache.enabled"
	KeyCacheDBFile          = "cache.dbfile"
	KeyCacheTTL             = "cache.ttl"
	KeySQLiteEnabled        = "sqlite.enabled"
	KeySQLiteDBFile         = "sqlite.dbfile"
	KeySummaryFile          = "summary.file"
)

const (
	DefaultSearch       = "subject:horses"
	DefaultLimit        = 20
	DefaultDataDir      = "."
	DefaultLogLevel     = "INFO"
	DefaultCacheDBFile  = "./cache.db"
	DefaultSQLiteDBFile = "./catalog.db"
)

// EnvPrefix is prepended to environment variable overrides, e.g. OLCATALOG_LIMIT.
const EnvPrefix = "OLCATALOG"

// Config holds the resolved settings for one pipeline run.
type Config struct {
	Search   string
	Limit    int
	DataDir  string
	LogLevel string

	OpenLibrary OpenLibrary
	Cache       Cache
	SQLite      SQLite

	SummaryFile string
}

// OpenLibrary configures the search API client.
type OpenLibrary struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Cache configures the search response cache.
type Cache struct {
	Enabled bool
	DBFile  string
	TTL     time.Duration
}

// SQLite configures the optional relational mirror.
type SQLite struct {
	Enabled bool
	DBFile  string
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySearch, DefaultSearch)
	v.SetDefault(KeyLimit, DefaultLimit)
	v.SetDefault(KeyDataDir, DefaultDataDir)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	v.SetDefault(KeyOpenLibraryBaseURL, openlibrary.DefaultBaseURL)
	v.SetDefault(KeyOpenLibraryUserAgent, openlibrary.DefaultUserAgent)
	v.SetDefault(KeyOpenLibraryTimeout, openlibrary.DefaultTimeout)
	v.SetDefault(KeyOpenLibraryRateLimit, openlibrary.DefaultRequestsPerSecond)

	v.SetDefault(KeyCacheEnabled, false)
	v.SetDefault(KeyCacheDBFile, DefaultCacheDBFile)
	v.SetDefault(KeyCacheTTL, cache.DefaultTTL)

	v.SetDefault(KeySQLiteEnabled, false)
	v.SetDefault(KeySQLiteDBFile, DefaultSQLiteDBFile)

	v.SetDefault(KeySummaryFile, "")
}

// Load reads the typed configuration from v. Invalid durations and
// non-positive limits fall back to their defaults.
func Load(v *viper.Viper) Config {
	cfg := Config{
		Search:   v.GetString(KeySearch),
		Limit:    v.GetInt(KeyLimit),
		DataDir:  v.GetString(KeyDataDir),
		LogLevel: v.GetString(KeyLogLevel),
		OpenLibrary: OpenLibrary{
			BaseURL:           v.GetString(KeyOpenLibraryBaseURL),
			UserAgent:         v.GetString(KeyOpenLibraryUserAgent),
			Timeout:           v.GetDuration(KeyOpenLibraryTimeout),
			RequestsPerSecond: v.GetFloat64(KeyOpenLibraryRateLimit),
		},
		Cache: Cache{
			Enabled: v.GetBool(KeyCacheEnabled),
			DBFile:  v.GetString(KeyCacheDBFile),
			TTL:     v.GetDuration(KeyCacheTTL),
		},
		SQLite: SQLite{
			Enabled: v.GetBool(KeySQLiteEnabled),
			DBFile:  v.GetString(KeySQLiteDBFile),
		},
		SummaryFile: v.GetString(KeySummaryFile),
	}

	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.OpenLibrary.Timeout <= 0 {
		cfg.OpenLibrary.Timeout = openlibrary.DefaultTimeout
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = cache.DefaultTTL
	}
	return cfg
}
