// Package config loads relfilter settings from relfilter.yaml and
// RELFILTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/relfilter/internal/filter"
)

// FileName is the config file name looked up in the config directory.
const FileName = "relfilter"

// EnvPrefix prefixes environment overrides, e.g. RELFILTER_DIALECT.
const EnvPrefix = "RELFILTER"

// Config holds the settings shared by the CLI commands.
type Config struct {
	// Dialect selects the SQL dialect of compiled queries.
	Dialect filter.Dialect

	// Database is the SQLite path used by commands that execute queries.
	Database string

	// Schema is the model directory or file.
	Schema string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Dialect:  filter.DialectSQLite,
		Database: ":memory:",
		Schema:   "schema",
		LogLevel: "info",
	}
}

// Load reads settings with precedence env > file > defaults. path is a
// config file or a directory searched for relfilter.yaml; an empty path
// searches the working directory. A missing file is not an error.
func Load(path string) (Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("dialect", string(def.Dialect))
	v.SetDefault("database", def.Database)
	v.SetDefault("schema", def.Schema)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		Dialect:  filter.Dialect(strings.ToLower(v.GetString("dialect"))),
		Database: v.GetString("database"),
		Schema:   v.GetString("schema"),
		LogLevel: strings.ToLower(v.GetString("log_level")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the dialect and log level.
func (c Config) Validate() error {
	switch c.Dialect {
	case filter.DialectSQLite, filter.DialectPostgres, filter.DialectMySQL:
	default:
		return fmt.Errorf("invalid dialect %q: must be one of sqlite, postgres, mysql", c.Dialect)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
