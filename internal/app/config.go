package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the ComunicaHub backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Feed      FeedConfig      `mapstructure:"feed"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// IngestionConfig controls the scheduled import of external feeds. SourceURL
// points at an upstream endpoint serving pre-decoded batches; with it empty no
// poll job is scheduled and batches arrive over the ingest API only.
type IngestionConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Schedule   string        `mapstructure:"schedule"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	SourceName string        `mapstructure:"source_name"`
	SourceURL  string        `mapstructure:"source_url"`
}

// FeedConfig controls the notification feed defaults.
type FeedConfig struct {
	WindowDays int             `mapstructure:"window_days"`
	ReadState  ReadStateConfig `mapstructure:"readstate"`
}

// ReadStateConfig selects where acknowledged notification ids are persisted.
// Backend is "file" or "database".
type ReadStateConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("COMUNICAHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/comunicahub.sqlite")

	v.SetDefault("ingestion.enabled", true)
	v.SetDefault("ingestion.schedule", "@hourly")
	v.SetDefault("ingestion.run_timeout", "5m")
	v.SetDefault("ingestion.source_name", "diario")
	v.SetDefault("ingestion.source_url", "")

	v.SetDefault("feed.window_days", 7)
	v.SetDefault("feed.readstate.backend", "file")
	v.SetDefault("feed.readstate.path", "./data/readstate.json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
