package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/olcatalog/internal/config"
	"github.com/spf13/viper"
)

var (
	stdout io.Writer = os.Stdout
	exit             = os.Exit
)

// CLI represents the complete command structure for the olcatalog application
type CLI struct {
	LogLevel string `name:"log-level" help:"Log level (DEBUG, INFO, WARNING, ERROR). Defaults to loglevel from config or INFO"`
	Config   string `help:"Path to config file (defaults to ./config.yaml when present)" type:"path"`

	Run   RunCmd   `cmd:"" default:"withargs" help:"Fetch search results and merge them into the catalog tables"`
	Cache CacheCmd `cmd:"" help:"Manage the search response cache"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("olcatalog"),
		kong.Description("Incrementally load Open Library search results into authors, books and subjects tables."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	configErr := initConfig(cli.Config)
	initLogging(cli.LogLevel)
	if configErr != nil {
		slog.Error("Failed to read config file", "error", configErr)
		exit(1)
		return
	}

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		exit(1)
	}
}

// initConfig registers defaults and reads the optional config file and
// OLCATALOG_* environment variables. A missing default config file is not an
// error; a missing explicitly named one is.
func initConfig(configFile string) error {
	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func initLogging(flagLevel string) {
	name := flagLevel
	if name == "" {
		name = viper.GetString(config.KeyLogLevel)
	}
	level, ok := parseLogLevel(name)

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))

	if !ok {
		slog.Warn("Unknown log level, using INFO", "level", name)
	}
}

// parseLogLevel maps a level name onto slog. Unknown names map to INFO and
// report false.
func parseLogLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARNING", "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
