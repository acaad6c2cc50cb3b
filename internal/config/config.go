package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Export   ExportConfig   `yaml:"export"`
	Download DownloadConfig `yaml:"download"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9612"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
}

// CatalogConfig holds asset catalog configuration.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH" default:"/data/catalog.db"`
}

// ExportConfig holds export destination configuration.
type ExportConfig struct {
	DestinationRoot string `yaml:"destination_root" envconfig:"EXPORT_DESTINATION"`
	DirMode         uint32 `yaml:"dir_mode" envconfig:"EXPORT_DIR_MODE" default:"493"`   // 0755
	FileMode        uint32 `yaml:"file_mode" envconfig:"EXPORT_FILE_MODE" default:"420"` // 0644
}

// DownloadConfig holds resource fetch configuration.
type DownloadConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"10m"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"DOWNLOAD_READ_TIMEOUT" default:"2m"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"DOWNLOAD_RETRY_DELAY" default:"5s"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" envconfig:"DOWNLOAD_MAX_RETRY_DELAY" default:"60s"`
	MaxAttempts   int           `yaml:"max_attempts" envconfig:"DOWNLOAD_MAX_ATTEMPTS" default:"3"`
	UserAgent     string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"camroll/1.0"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Download.MaxAttempts < 1 {
		return fmt.Errorf("DOWNLOAD_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
