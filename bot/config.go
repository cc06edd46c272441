package bot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncwikibot/ncimport/retry"
)

// Config holds the full bot configuration.
type Config struct {
	NCCommons  NCCommonsConfig  `yaml:"nc_commons"`
	Wikipedia  WikipediaConfig  `yaml:"wikipedia"`
	Database   DatabaseConfig   `yaml:"database"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// NCCommonsConfig locates the source file repository.
type NCCommonsConfig struct {
	Site         string `yaml:"site"`
	LanguagePage string `yaml:"language_page"`
}

// WikipediaConfig carries the destination-side editing settings.
type WikipediaConfig struct {
	UploadComment string `yaml:"upload_comment"`
	Category      string `yaml:"category"`
}

// DatabaseConfig locates the tracking store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ProcessingConfig bounds the run: page cap per language and the fixed
// retry schedule for remote calls.
type ProcessingConfig struct {
	MaxPagesPerLanguage    int     `yaml:"max_pages_per_language"`
	MaxRetryAttempts       int     `yaml:"max_retry_attempts"`
	RetryDelaySeconds      int     `yaml:"retry_delay_seconds"`
	RetryBackoffMultiplier float64 `yaml:"retry_backoff_multiplier"`
}

// LoggingConfig configures level, optional log file, and rotation.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	Backups   int    `yaml:"backups"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		NCCommons: NCCommonsConfig{
			Site:         "nccommons.org",
			LanguagePage: "User:Mr. Ibrahem/import bot",
		},
		Wikipedia: WikipediaConfig{
			UploadComment: "Bot: importing file from NC Commons",
			Category:      "Category:Files from NC Commons",
		},
		Database: DatabaseConfig{Path: "data/ncimport.db"},
		Processing: ProcessingConfig{
			MaxPagesPerLanguage:    500,
			MaxRetryAttempts:       3,
			RetryDelaySeconds:      5,
			RetryBackoffMultiplier: 2,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			Backups:   5,
		},
	}
}

// LoadConfig reads and parses a YAML config file, merged over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.NCCommons.Site == "" {
		return fmt.Errorf("nc_commons.site is required")
	}
	if c.NCCommons.LanguagePage == "" {
		return fmt.Errorf("nc_commons.language_page is required")
	}
	if c.Wikipedia.Category == "" {
		return fmt.Errorf("wikipedia.category is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Processing.MaxPagesPerLanguage <= 0 {
		return fmt.Errorf("processing.max_pages_per_language must be > 0")
	}
	if c.Processing.MaxRetryAttempts <= 0 {
		return fmt.Errorf("processing.max_retry_attempts must be > 0")
	}
	if c.Processing.RetryBackoffMultiplier <= 0 {
		return fmt.Errorf("processing.retry_backoff_multiplier must be > 0")
	}
	return nil
}

// RetryPolicy builds the remote-call retry schedule from the config.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Processing.MaxRetryAttempts,
		Delay:       time.Duration(c.Processing.RetryDelaySeconds) * time.Second,
		Backoff:     c.Processing.RetryBackoffMultiplier,
	}
}
