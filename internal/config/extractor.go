package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvExtractorEndpoint       = "EXTRACTOR_ENDPOINT"
	EnvExtractorMaxConcurrency = "EXTRACTOR_MAX_CONCURRENCY"
	EnvExtractorBackend        = "DN_EXTRACTOR_BACKEND"
	EnvExtractorModel          = "DN_EXTRACTOR_MODEL"
	EnvExtractorAPIKey         = "DN_EXTRACTOR_API_KEY"
	EnvExtractorMode           = "DN_EXTRACTOR_MODE"
	EnvExtractorTimeout        = "DN_EXTRACTOR_TIMEOUT"
	EnvExtractorRetries        = "DN_EXTRACTOR_RETRIES"
	EnvExtractorAgentConfig    = "DN_EXTRACTOR_AGENT_CONFIG"
	EnvExtractorDPI            = "DN_EXTRACTOR_DPI"
)

// Extractor backends.
const (
	ExtractorOpenAI = "openai"
	ExtractorAgent  = "agent"
)

// Extractor payload modes.
const (
	ModeImage = "image"
	ModeText  = "text"
)

// ExtractorConfig configures the page classification model.
//
// The openai backend talks to any OpenAI-compatible chat completions
// endpoint. The agent backend loads a go-agents configuration file. With
// neither an endpoint nor an agent config the extractor is unavailable.
type ExtractorConfig struct {
	Backend        string `toml:"backend"`
	Endpoint       string `toml:"endpoint"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	AgentConfig    string `toml:"agent_config"`
	Mode           string `toml:"mode"`
	DPI            int    `toml:"dpi"`
	MaxConcurrency int    `toml:"max_concurrency"`
	Timeout        string `toml:"timeout"`
	Retries        int    `toml:"retries"`
	RetryBase      string `toml:"retry_base"`
}

// Available reports whether a model backend is configured.
func (c *ExtractorConfig) Available() bool {
	switch c.Backend {
	case ExtractorAgent:
		return c.AgentConfig != ""
	default:
		return c.Endpoint != ""
	}
}

func (c *ExtractorConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ExtractorConfig) RetryBaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBase)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the extractor configuration.
func (c *ExtractorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ExtractorConfig) Merge(overlay *ExtractorConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.AgentConfig != "" {
		c.AgentConfig = overlay.AgentConfig
	}
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.MaxConcurrency != 0 {
		c.MaxConcurrency = overlay.MaxConcurrency
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Retries != 0 {
		c.Retries = overlay.Retries
	}
	if overlay.RetryBase != "" {
		c.RetryBase = overlay.RetryBase
	}
}

func (c *ExtractorConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = ExtractorOpenAI
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Mode == "" {
		c.Mode = ModeImage
	}
	if c.DPI == 0 {
		c.DPI = 150
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.RetryBase == "" {
		c.RetryBase = "1s"
	}
}

func (c *ExtractorConfig) loadEnv() {
	if v := os.Getenv(EnvExtractorEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvExtractorMaxConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
	if v := os.Getenv(EnvExtractorBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvExtractorModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvExtractorAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvExtractorMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvExtractorTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvExtractorRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
	if v := os.Getenv(EnvExtractorAgentConfig); v != "" {
		c.AgentConfig = v
	}
	if v := os.Getenv(EnvExtractorDPI); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
}

func (c *ExtractorConfig) validate() error {
	if c.Backend != ExtractorOpenAI && c.Backend != ExtractorAgent {
		return fmt.Errorf("invalid backend %q (must be openai or agent)", c.Backend)
	}
	if c.Mode != ModeImage && c.Mode != ModeText {
		return fmt.Errorf("invalid mode %q (must be image or text)", c.Mode)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.DPI < 36 || c.DPI > 600 {
		return fmt.Errorf("dpi must be between 36 and 600")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryBase); err != nil {
		return fmt.Errorf("invalid retry_base: %w", err)
	}
	return nil
}
