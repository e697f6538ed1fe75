package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all docent configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Local persistence (credential + local repository)
	Store StoreConfig `yaml:"store"`

	// Narration playback
	Playback PlaybackConfig `yaml:"playback"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// PlaybackConfig configures the narration player.
type PlaybackConfig struct {
	// TickInterval is how often the player samples the playback position.
	TickInterval string `yaml:"tick_interval"`

	// SeekStep is how far a single seek key press moves the position.
	SeekStep string `yaml:"seek_step"`

	// Script is the default narration script loaded by the player screen.
	Script string `yaml:"script"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "docent",
		Version: "0.4.0",

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(DefaultHome(), "docent.db"),
		},

		Playback: PlaybackConfig{
			TickInterval: "250ms",
			SeekStep:     "5s",
		},

		UI: *DefaultUIConfig(),
	}
}

// DefaultHome returns ~/.docent, falling back to the working directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docent"
	}
	return filepath.Join(home, ".docent")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultHome(), "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("DOCENT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("DOCENT_DB_PATH"); path != "" {
		c.Store.DatabasePath = path
	}
	if theme := os.Getenv("DOCENT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// GetTickInterval returns the playback tick interval as a duration.
func (c *Config) GetTickInterval() time.Duration {
	d, err := time.ParseDuration(c.Playback.TickInterval)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}

// GetSeekStep returns the seek step as a duration.
func (c *Config) GetSeekStep() time.Duration {
	d, err := time.ParseDuration(c.Playback.SeekStep)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validLevel := false
	for _, l := range ValidLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}

	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path must not be empty")
	}

	if _, err := time.ParseDuration(c.Playback.TickInterval); err != nil {
		return fmt.Errorf("invalid playback.tick_interval %q: %w", c.Playback.TickInterval, err)
	}

	if !c.UI.IsValidTheme() {
		return fmt.Errorf("invalid ui.theme: %s (valid: light, dark)", c.UI.Theme)
	}

	return nil
}
