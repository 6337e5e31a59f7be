package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Dest    DestConfig    `yaml:"dest" mapstructure:"dest"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig describes the requester-pays NAIP bucket.
type SourceConfig struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Region string `yaml:"region" mapstructure:"region"`
	State  string `yaml:"state" mapstructure:"state"`
}

// DestConfig describes the destination bucket for replicated tiles.
type DestConfig struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Region string `yaml:"region" mapstructure:"region"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// GeocodeConfig configures the Census geocoding fallback.
type GeocodeConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SyncConfig configures pipeline behavior.
type SyncConfig struct {
	MappingPath    string  `yaml:"mapping_path" mapstructure:"mapping_path"`
	TilesPerSecond float64 `yaml:"tiles_per_second" mapstructure:"tiles_per_second"`
	ScratchDir     string  `yaml:"scratch_dir" mapstructure:"scratch_dir"`
	UploadPartMB   int     `yaml:"upload_part_mb" mapstructure:"upload_part_mb"`
}

// HistoryConfig configures the local run-history store.
type HistoryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NAIPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.bucket", "naip-analytic")
	v.SetDefault("source.region", "us-west-2")
	v.SetDefault("source.state", "tx")
	v.SetDefault("dest.bucket", "dallas-flood-raw-data")
	v.SetDefault("dest.region", "us-east-1")
	v.SetDefault("dest.prefix", "imagery/naip")
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.rate_limit", 5)
	v.SetDefault("sync.mapping_path", "zip_quad_mapping.json")
	v.SetDefault("sync.tiles_per_second", 2)
	v.SetDefault("sync.upload_part_mb", 25)
	v.SetDefault("history.path", "naip-sync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
