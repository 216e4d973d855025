package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	EnvUploadsMaxFileSize  = "DN_MAX_FILE_SIZE"
	EnvUploadsMaxBatchSize = "DN_MAX_BATCH_SIZE"
)

// UploadsConfig contains upload size limits in human-readable form.
type UploadsConfig struct {
	MaxFileSize     string `toml:"max_file_size"`
	MaxBatchSize    string `toml:"max_batch_size"`
	maxFileSizeVal  int64
	maxBatchSizeVal int64
}

func (c *UploadsConfig) MaxFileSizeBytes() int64 {
	return c.maxFileSizeVal
}

func (c *UploadsConfig) MaxBatchSizeBytes() int64 {
	return c.maxBatchSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the upload limits.
func (c *UploadsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *UploadsConfig) Merge(overlay *UploadsConfig) {
	if size, err := units.FromHumanSize(overlay.MaxFileSize); err == nil {
		c.MaxFileSize = overlay.MaxFileSize
		c.maxFileSizeVal = size
	}
	if size, err := units.FromHumanSize(overlay.MaxBatchSize); err == nil {
		c.MaxBatchSize = overlay.MaxBatchSize
		c.maxBatchSizeVal = size
	}
}

func (c *UploadsConfig) loadDefaults() {
	if c.MaxFileSize == "" {
		c.MaxFileSize = "20MB"
	}
	if c.MaxBatchSize == "" {
		c.MaxBatchSize = "100MB"
	}
}

func (c *UploadsConfig) loadEnv() {
	if v := os.Getenv(EnvUploadsMaxFileSize); v != "" {
		c.MaxFileSize = v
	}
	if v := os.Getenv(EnvUploadsMaxBatchSize); v != "" {
		c.MaxBatchSize = v
	}
}

func (c *UploadsConfig) validate() error {
	file, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	batch, err := units.FromHumanSize(c.MaxBatchSize)
	if err != nil {
		return fmt.Errorf("invalid max_batch_size: %w", err)
	}
	if file <= 0 || batch <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	if file > batch {
		return fmt.Errorf("max_file_size exceeds max_batch_size")
	}
	c.maxFileSizeVal = file
	c.maxBatchSizeVal = batch
	return nil
}
