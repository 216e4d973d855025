package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvJobsTimeout         = "DN_JOB_TIMEOUT"
	EnvJobsFileConcurrency = "DN_JOB_FILE_CONCURRENCY"
)

// JobsConfig bounds batch processing.
type JobsConfig struct {
	Timeout         string `toml:"timeout"`
	FileConcurrency int    `toml:"file_concurrency"`
}

func (c *JobsConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *JobsConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "30m"
	}
	if c.FileConcurrency == 0 {
		c.FileConcurrency = 2
	}

	if v := os.Getenv(EnvJobsTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvJobsFileConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FileConcurrency = n
		}
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout %q", c.Timeout)
	}
	if c.FileConcurrency < 1 {
		return fmt.Errorf("file_concurrency must be positive")
	}
	return nil
}

func (c *JobsConfig) Merge(overlay *JobsConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.FileConcurrency != 0 {
		c.FileConcurrency = overlay.FileConcurrency
	}
}
