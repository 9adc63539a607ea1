// Package config provides configuration management for the EmergencyCore
// server. It covers the HTTP server, the completion endpoint used for
// report analysis, the weather advisory table, and logging preferences.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration.
// It combines server settings, completion endpoint configuration, the
// weather advisory table, and logging preferences into a single structure.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Completion     CompletionConfig     `yaml:"completion"`
	Weather        WeatherConfig        `yaml:"weather"`
	Logging        LoggingConfig        `yaml:"logging"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
// It defines timeouts, limits, and operational parameters.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response (default: 45s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout specifies how long to wait for the server to shutdown
	// gracefully before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CompletionConfig holds configuration for the completion endpoint the
// report analyzer talks to. The API key is expected to arrive through
// environment expansion (e.g. ${XAI_API_KEY}); it must never be a literal
// in source or in a committed config file.
type CompletionConfig struct {
	// Provider selects the transport: "http" for the real endpoint,
	// "stub" for the canned local provider used in keyless demo runs
	Provider string `yaml:"provider"`

	// Endpoint is the completion service URL
	Endpoint string `yaml:"endpoint"`

	// Model is the model identifier sent with every request
	Model string `yaml:"model"`

	// APIKey authenticates the outbound call via a bearer header
	APIKey string `yaml:"api_key"`

	// MaxTokens is the completion token budget sent with every request
	MaxTokens int `yaml:"max_tokens"`

	// SystemPrompt is the fixed system role description
	SystemPrompt string `yaml:"system_prompt"`

	// Timeout bounds the single outbound POST (default: 30s). The original
	// system had none; a bound is kept as a baseline safety property.
	Timeout time.Duration `yaml:"timeout"`

	// MaxContextTokens caps the token count of a built prompt. Prompts over
	// the cap are rejected before any network call.
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// WeatherConfig holds the advisory table for the weather panel. The
// prediction itself is a stub: every request reports RiskTier with the
// advisory string keyed to it.
type WeatherConfig struct {
	// RiskTier is the tier reported for every location (default: Moderate)
	RiskTier string `yaml:"risk_tier"`

	// Advisories maps risk tiers to advisory strings
	Advisories map[string]string `yaml:"advisories"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`

	// Format specifies log output format: json or text
	Format string `yaml:"format"`
}

// CircuitBreakerConfig configures the breaker around the outbound
// completion call. The breaker fails fast after sustained upstream
// failure; it never retries anything.
type CircuitBreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the breaker is half-open
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state
	Interval time.Duration `yaml:"interval"`

	// Timeout is the period of the open state until it becomes half-open
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold is the number of consecutive failures needed to trip
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// DefaultConfig returns the configuration the server runs with when no
// config file overrides are present. The prompt and advisory strings match
// the original EmergencyCore behavior.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    45 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},

		Completion: CompletionConfig{
			Provider:         "http",
			Endpoint:         "https://api.x.ai/v1/chat/completions",
			Model:            "grok-beta",
			APIKey:           "${XAI_API_KEY}",
			MaxTokens:        500,
			SystemPrompt:     "You are an advanced AI disaster response coordinator with expertise in emergency management, risk assessment, and humanitarian aid.",
			Timeout:          30 * time.Second,
			MaxContextTokens: 8192,
		},

		Weather: WeatherConfig{
			RiskTier: "Moderate",
			Advisories: map[string]string{
				"Low":      "Minor weather concerns, standard precautions advised.",
				"Moderate": "Potential for severe weather. Prepare emergency kit and stay informed.",
				"High":     "Extreme weather warning. Immediate protective actions recommended.",
			},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// expandEnvVars resolves environment variable references inside the raw
// YAML before decoding. Supported forms:
//
//   - "${VAR}"          standard substitution
//   - "${VAR:-default}" substitution with a fallback when VAR is unset
//
// Nested references are resolved until the string stops changing, so a
// variable may itself expand to another reference.
func expandEnvVars(s string) string {
	result := os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			envKey := key[:i]
			defaultValue := key[i+2:]
			if val := os.Getenv(envKey); val != "" {
				return val
			}
			return defaultValue
		}
		return os.Getenv(key)
	})

	prev := ""
	for prev != result {
		prev = result
		result = os.Expand(result, os.Getenv)
	}

	return result
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	// Start with defaults, decode YAML on top
	config := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	// Completion validation
	switch c.Completion.Provider {
	case "http", "stub":
		// Valid providers
	default:
		return fmt.Errorf("invalid completion provider: %s", c.Completion.Provider)
	}
	if c.Completion.Provider == "http" && c.Completion.Endpoint == "" {
		return fmt.Errorf("empty completion endpoint")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("empty completion model")
	}
	if c.Completion.MaxTokens <= 0 {
		return fmt.Errorf("non-positive max tokens: %d", c.Completion.MaxTokens)
	}
	if c.Completion.Timeout < 0 {
		return fmt.Errorf("negative completion timeout: %v", c.Completion.Timeout)
	}
	if c.Completion.MaxContextTokens < 0 {
		return fmt.Errorf("negative max context tokens: %d", c.Completion.MaxContextTokens)
	}

	// Weather validation: the configured tier must have an advisory string
	if c.Weather.RiskTier == "" {
		return fmt.Errorf("empty weather risk tier")
	}
	if _, ok := c.Weather.Advisories[c.Weather.RiskTier]; !ok {
		return fmt.Errorf("no advisory configured for risk tier %q", c.Weather.RiskTier)
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
