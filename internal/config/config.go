// Package config provides configuration management for the Noupe2API server.
// It handles loading and parsing the YAML configuration file, applying
// environment overrides on top, and provides structured access to application
// settings including server port, client API keys, logging, and the Noupe
// backend credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the Noupe deployment the proxy talks to unless
	// overridden per deployment.
	DefaultBaseURL = "https://www.noupe.com"

	// DefaultTimeoutSeconds bounds the whole upstream call. The backend can
	// sit silent for a long time before emitting its one meaningful event.
	DefaultTimeoutSeconds = 180

	// DefaultCharDelayMS paces simulated streaming chunks, matching the
	// typing cadence the embed widget shows.
	DefaultCharDelayMS = 10

	// DefaultModel is advertised when no model list is configured.
	DefaultModel = "noupe-chat-model"
)

// Config represents the application's configuration, loaded from a YAML file
// with environment variables taking precedence. It is treated as immutable
// after load; hot reload swaps the whole value.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `yaml:"port"`

	// APIKeys is a list of keys for authenticating clients to this proxy.
	// When empty the server is open to all callers and logs a warning.
	APIKeys []string `yaml:"api-keys"`

	// RequestLog enables verbose per-request debug logging.
	RequestLog bool `yaml:"request-log"`

	// Metrics toggles the Prometheus middleware and /metrics endpoint.
	Metrics bool `yaml:"metrics"`

	// Logging holds log level and optional file output settings.
	Logging LoggingConfig `yaml:"logging"`

	// Noupe holds the upstream backend credentials and connection settings.
	Noupe NoupeConfig `yaml:"noupe"`

	// Streaming configures the simulated delta-stream presentation.
	Streaming StreamingConfig `yaml:"streaming"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	// Level is the logrus level name (debug, info, warn, error).
	Level string `yaml:"level"`

	// File, when set, routes logs to a rotated file instead of stderr.
	File string `yaml:"file"`
}

// NoupeConfig holds the Noupe backend credentials and connection settings.
// The cookie and the agent/chat identifier pair scope every conversation; all
// three are required to serve chat traffic.
type NoupeConfig struct {
	// BaseURL is the scheme+host of the Noupe deployment.
	BaseURL string `yaml:"base-url"`

	// Cookie is the raw session cookie sent with every upstream call.
	Cookie string `yaml:"cookie"`

	// AgentID identifies the agent within the Noupe deployment.
	AgentID string `yaml:"agent-id"`

	// ChatID identifies the chat session the proxy drives.
	ChatID string `yaml:"chat-id"`

	// TimeoutSeconds bounds the whole upstream call. <= 0 means default.
	TimeoutSeconds int `yaml:"timeout-seconds"`

	// Models is the list advertised on /v1/models. The first entry is also
	// the fallback model name echoed in responses.
	Models []string `yaml:"models"`
}

// StreamingConfig holds simulated streaming behavior configuration.
type StreamingConfig struct {
	// CharDelayMS is the pause between per-character chunks.
	// nil means default (10ms). 0 disables pacing entirely.
	CharDelayMS *int `yaml:"char-delay-ms,omitempty"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// defaults, and returns the resulting configuration. A missing file is not an
// error: the original deployment style is environment-only.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if the file exists but cannot be parsed
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnvOverrides maps the environment surface of the original deployment
// onto the config value. Environment always wins over the file.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("API_MASTER_KEY")); v != "" {
		c.APIKeys = append(c.APIKeys, v)
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("NOUPE_BASE_URL")); v != "" {
		c.Noupe.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NOUPE_COOKIE")); v != "" {
		c.Noupe.Cookie = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_ID")); v != "" {
		c.Noupe.AgentID = v
	}
	if v := strings.TrimSpace(os.Getenv("CHAT_ID")); v != "" {
		c.Noupe.ChatID = v
	}
	if v := strings.TrimSpace(os.Getenv("SUPPORTED_MODELS")); v != "" {
		var models []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				models = append(models, name)
			}
		}
		if len(models) > 0 {
			c.Noupe.Models = models
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if strings.TrimSpace(c.Noupe.BaseURL) == "" {
		c.Noupe.BaseURL = DefaultBaseURL
	}
	c.Noupe.BaseURL = strings.TrimSuffix(c.Noupe.BaseURL, "/")
	if c.Noupe.TimeoutSeconds <= 0 {
		c.Noupe.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if len(c.Noupe.Models) == 0 {
		c.Noupe.Models = []string{DefaultModel}
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that the upstream credentials required to serve chat
// traffic are present.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Noupe.Cookie) == "" {
		missing = append(missing, "noupe.cookie (NOUPE_COOKIE)")
	}
	if strings.TrimSpace(c.Noupe.AgentID) == "" {
		missing = append(missing, "noupe.agent-id (AGENT_ID)")
	}
	if strings.TrimSpace(c.Noupe.ChatID) == "" {
		missing = append(missing, "noupe.chat-id (CHAT_ID)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// OpenAccess reports whether the server runs without client authentication.
func (c *Config) OpenAccess() bool {
	return len(c.APIKeys) == 0
}

// UpstreamTimeout returns the bounded overall timeout for backend calls.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Noupe.TimeoutSeconds) * time.Second
}

// CharDelay returns the pacing delay between simulated stream chunks.
func (c *Config) CharDelay() time.Duration {
	if c.Streaming.CharDelayMS == nil {
		return DefaultCharDelayMS * time.Millisecond
	}
	if *c.Streaming.CharDelayMS <= 0 {
		return 0
	}
	return time.Duration(*c.Streaming.CharDelayMS) * time.Millisecond
}

// DefaultModelName returns the first configured model name.
func (c *Config) DefaultModelName() string {
	if len(c.Noupe.Models) > 0 {
		return c.Noupe.Models[0]
	}
	return DefaultModel
}
