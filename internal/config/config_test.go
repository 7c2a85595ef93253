package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(newViper())

	assert.Equal(t, DefaultSearch, cfg.Search)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "https://openlibrary.org", cfg.OpenLibrary.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.OpenLibrary.Timeout)
	assert.InDelta(t, 1.0, cfg.OpenLibrary.RequestsPerSecond, 0.0001)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.SQLite.Enabled)
	assert.Equal(t, "./catalog.db", cfg.SQLite.DBFile)
	assert.Empty(t, cfg.SummaryFile)
}

func TestLoadOverrides(t *testing.T) {
	v := newViper()
	v.Set(KeySearch, "subject:dragons")
	v.Set(KeyLimit, 5)
	v.Set(KeyDataDir, "/tmp/catalog")
	v.Set(KeyCacheEnabled, true)
	v.Set(KeyCacheTTL, "15m")
	v.Set(KeySQLiteEnabled, true)
	v.Set(KeySummaryFile, "summary.yaml")

	cfg := Load(v)

	assert.Equal(t, "subject:dragons", cfg.Search)
	assert.Equal(t, 5, cfg.Limit)
	assert.Equal(t, "/tmp/catalog", cfg.DataDir)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.SQLite.Enabled)
	assert.Equal(t, "summary.yaml", cfg.SummaryFile)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value any
		check func(t *testing.T, cfg Config)
	}{
		{
			name:  "zero limit",
			key:   KeyLimit,
			value: 0,
			check: func(t *testing.T, cfg Config) { assert.Equal(t, DefaultLimit, cfg.Limit) },
		},
		{
			name:  "negative limit",
			key:   KeyLimit,
			value: -3,
			check: func(t *testing.T, cfg Config) { assert.Equal(t, DefaultLimit, cfg.Limit) },
		},
		{
			name:  "empty data dir",
			key:   KeyDataDir,
			value: "",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, ".", cfg.DataDir) },
		},
		{
			name:  "unparseable ttl",
			key:   KeyCacheTTL,
			value: "soon",
			check: func(t *testing.T, cfg Config) { assert.Equal(t, time.Hour, cfg.Cache.TTL) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newViper()
			v.Set(tc.key, tc.value)
			tc.check(t, Load(v))
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("OLCATALOG_LIMIT", "7")
	t.Setenv("OLCATALOG_SEARCH", "subject:ponies")

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := Load(v)
	assert.Equal(t, 7, cfg.Limit)
	assert.Equal(t, "subject:ponies", cfg.Search)
}
