// Package config loads bcall run configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidAlpha        = errors.New("alpha must be in (0, 1)")
	ErrInvalidWorkers      = errors.New("workers must be at least 1")
	ErrInvalidCapacity     = errors.New("initial capacity must not be negative")
	ErrInvalidCodec        = errors.New("invalid snapshot codec")
	ErrInvalidReportFormat = errors.New("invalid report format")
	ErrInvalidLogLevel     = errors.New("invalid log level")
)

const envPrefix = "BCALL"

// Config holds the configuration of one bcall run.
type Config struct {
	Stats    StatsConfig    `mapstructure:"stats"`
	Build    BuildConfig    `mapstructure:"build"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Report   ReportConfig   `mapstructure:"report"`
}

// StatsConfig holds the significance test settings.
type StatsConfig struct {
	Alpha float64 `mapstructure:"alpha"`
}

// BuildConfig holds prior build settings.
type BuildConfig struct {
	Workers int `mapstructure:"workers"`
	// InitialCapacity pre-sizes the prior map.
	InitialCapacity int `mapstructure:"initial_capacity"`
}

// SnapshotConfig selects the dump codec.
type SnapshotConfig struct {
	Codec string `mapstructure:"codec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig holds the Prometheus endpoint address. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ReportConfig selects the prior summary format.
type ReportConfig struct {
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath the usual locations are searched and a missing
// file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("bcall")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/bcall")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Stats:    StatsConfig{Alpha: DefaultAlpha},
		Build:    BuildConfig{Workers: DefaultWorkers, InitialCapacity: DefaultInitialCapacity},
		Snapshot: SnapshotConfig{Codec: DefaultCodec},
		Logging:  LoggingConfig{Level: DefaultLogLevel, JSON: DefaultLogJSON},
		Metrics:  MetricsConfig{Addr: DefaultMetricsAddr},
		Report:   ReportConfig{Format: DefaultReportFormat},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("stats.alpha", DefaultAlpha)
	viperCfg.SetDefault("build.workers", DefaultWorkers)
	viperCfg.SetDefault("build.initial_capacity", DefaultInitialCapacity)
	viperCfg.SetDefault("snapshot.codec", DefaultCodec)
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)
	viperCfg.SetDefault("metrics.addr", DefaultMetricsAddr)
	viperCfg.SetDefault("report.format", DefaultReportFormat)
}

// Validate checks every field. It is called again after CLI overrides.
func (c *Config) Validate() error {
	if !(c.Stats.Alpha > 0 && c.Stats.Alpha < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidAlpha, c.Stats.Alpha)
	}

	if c.Build.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Build.Workers)
	}

	if c.Build.InitialCapacity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Build.InitialCapacity)
	}

	if !slices.Contains(validCodecs, c.Snapshot.Codec) {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Snapshot.Codec)
	}

	if !slices.Contains(validReportFormats, c.Report.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.Report.Format)
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}
