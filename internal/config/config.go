// Package config provides application configuration management with support for
// TOML files, .env files, environment variable overrides, and configuration overlays.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/database"
	"github.com/JaimeStill/delivery-notes/pkg/logging"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// DotEnvFile is loaded into the process environment when present.
	DotEnvFile = ".env"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"

	// EnvServiceShutdownTimeout overrides the service shutdown timeout.
	EnvServiceShutdownTimeout = "DN_SHUTDOWN_TIMEOUT"
)

var databaseEnv = &database.Env{
	URL:          "DB_URL",
	Host:         "DN_DB_HOST",
	Port:         "DN_DB_PORT",
	Name:         "DN_DB_NAME",
	User:         "DN_DB_USER",
	Password:     "DN_DB_PASSWORD",
	MaxOpenConns: "DN_DB_MAX_OPEN_CONNS",
	ConnTimeout:  "DN_DB_CONN_TIMEOUT",
	AutoMigrate:  "DN_DB_AUTO_MIGRATE",
}

var blobsEnv = &blobs.Env{
	Backend:         "DN_BLOB_BACKEND",
	Dir:             "BLOB_DIR",
	Bucket:          "DN_GCS_BUCKET",
	Prefix:          "DN_GCS_PREFIX",
	CredentialsFile: "DN_GCS_CREDENTIALS",
}

var loggingEnv = &logging.Env{
	Level:     "DN_LOG_LEVEL",
	Format:    "DN_LOG_FORMAT",
	AddSource: "DN_LOG_ADD_SOURCE",
}

// Config represents the root service configuration.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Blobs           blobs.Config    `toml:"blobs"`
	Extractor       ExtractorConfig `toml:"extractor"`
	Cache           CacheConfig     `toml:"cache"`
	Jobs            JobsConfig      `toml:"jobs"`
	Uploads         UploadsConfig   `toml:"uploads"`
	Logging         logging.Config  `toml:"logging"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration parses and returns the shutdown timeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env, the base configuration file, and any environment-specific
// overlay. A missing base file yields an empty configuration so that defaults
// and environment variables alone can drive the service.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg, err := load(BaseConfigFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Blobs.Finalize(blobsEnv); err != nil {
		return fmt.Errorf("blobs: %w", err)
	}
	if err := c.Extractor.Finalize(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Jobs.Finalize(); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	if err := c.Uploads.Finalize(); err != nil {
		return fmt.Errorf("uploads: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Blobs.Merge(&overlay.Blobs)
	c.Extractor.Merge(&overlay.Extractor)
	c.Cache.Merge(&overlay.Cache)
	c.Jobs.Merge(&overlay.Jobs)
	c.Uploads.Merge(&overlay.Uploads)
	c.Logging.Merge(&overlay.Logging)
	c.API.Merge(&overlay.API)
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Database.URL == "" && c.Database.Name == "" &&
		os.Getenv(databaseEnv.URL) == "" && os.Getenv(databaseEnv.Name) == "" {
		c.Database.URL = "sqlite://.data/delivery-notes.db"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvServiceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		overlayPath := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(overlayPath); err == nil {
			return overlayPath
		}
	}
	return ""
}
