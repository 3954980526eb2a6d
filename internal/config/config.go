// ABOUTME: Configuration loading and parsing for drama-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreyalejandro/drama-engine/internal/model"
)

// Config represents the complete drama-gateway configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Personas PersonasConfig `yaml:"personas"`
	Chat     ChatConfig     `yaml:"chat"`
	Model    model.Config   `yaml:"model"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BackendConfig holds the remote generation service endpoint.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Path    string `yaml:"path"`
	APIKey  string `yaml:"api_key"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PersonasConfig holds the companion persona directory.
type PersonasConfig struct {
	Dir string `yaml:"dir"`
}

// ChatConfig holds session-level conversation settings.
type ChatConfig struct {
	SpeakerSelection   string `yaml:"speaker_selection"` // round_robin, random, auto
	AllowRepeatSpeaker bool   `yaml:"allow_repeat_speaker"`
	Username           string `yaml:"username"`

	ModeratorTimeout    time.Duration `yaml:"-"`
	ModeratorTimeoutRaw string        `yaml:"moderator_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded and
// duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Chat.SpeakerSelection {
	case "", "round_robin", "random", "auto":
	default:
		return fmt.Errorf("chat.speaker_selection must be round_robin, random, or auto")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.TimeoutRaw != "" {
		cfg.Backend.Timeout, err = time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
	}

	if cfg.Chat.ModeratorTimeoutRaw != "" {
		cfg.Chat.ModeratorTimeout, err = time.ParseDuration(cfg.Chat.ModeratorTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing chat.moderator_timeout %q: %w", cfg.Chat.ModeratorTimeoutRaw, err)
		}
	}

	return nil
}
