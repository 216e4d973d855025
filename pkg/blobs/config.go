package blobs

import (
	"fmt"
	"os"
)

// Backend names.
const (
	BackendFilesystem = "filesystem"
	BackendGCS        = "gcs"
)

// Config selects and configures the blob backend.
type Config struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	CredentialsFile string `toml:"credentials_file"`
}

// Env maps environment variable names for blob configuration.
type Env struct {
	Backend         string
	Dir             string
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.Dir == "" {
		c.Dir = ".data/blobs"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	set(env.Backend, &c.Backend)
	set(env.Dir, &c.Dir)
	set(env.Bucket, &c.Bucket)
	set(env.Prefix, &c.Prefix)
	set(env.CredentialsFile, &c.CredentialsFile)
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.Dir == "" {
			return fmt.Errorf("dir required")
		}
	case BackendGCS:
		if c.Bucket == "" {
			return fmt.Errorf("bucket required for gcs backend")
		}
	default:
		return fmt.Errorf("invalid backend %q (must be filesystem or gcs)", c.Backend)
	}
	return nil
}
