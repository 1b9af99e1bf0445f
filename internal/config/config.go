// Package config loads application configuration from file and
// environment and initializes the global logger.
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
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig identifies where the inspection PDF comes from.
type SourceConfig struct {
	// PageURL is the health department page scanned for a PDF link.
	PageURL string `yaml:"page_url" mapstructure:"page_url"`
	// PDFURL, if set, is fetched directly and link discovery is skipped.
	PDFURL    string `yaml:"pdf_url" mapstructure:"pdf_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// HTTPConfig configures the HTTP fetcher.
type HTTPConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// PathsConfig holds the on-disk locations of every pipeline artifact.
type PathsConfig struct {
	ArchiveDir    string `yaml:"archive_dir" mapstructure:"archive_dir"`
	RawCSV        string `yaml:"raw_csv" mapstructure:"raw_csv"`
	ReferenceFile string `yaml:"reference_file" mapstructure:"reference_file"`
	DatasetFile   string `yaml:"dataset_file" mapstructure:"dataset_file"`
	RunLogDB      string `yaml:"runlog_db" mapstructure:"runlog_db"`
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
	v.SetEnvPrefix("INSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.page_url", "https://www.lfchd.org/food-protection/")
	v.SetDefault("source.user_agent", "inspection-cli/1.0")
	v.SetDefault("http.timeout_secs", 60)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.rate_per_sec", 2)
	v.SetDefault("paths.archive_dir", "PDFs")
	v.SetDefault("paths.raw_csv", "food_scores.csv")
	v.SetDefault("paths.reference_file", "CodeViolations.csv")
	v.SetDefault("paths.dataset_file", "joined_scores_violations.csv")
	v.SetDefault("paths.runlog_db", "inspection_runs.db")
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
