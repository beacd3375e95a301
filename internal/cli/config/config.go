package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the toolbridge application configuration
type Config struct {
	Profiles string        `mapstructure:"profiles"` // path to the profile definition file
	Project  ProjectConfig `mapstructure:"project"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// ProjectConfig represents project directory configuration
type ProjectConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from toolbridge.yml or toolbridge.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("profiles", "profiles.yml")
	v.SetDefault("project.dir", ".")
	v.SetDefault("logging.level", "info")

	// Set config name and paths
	v.SetConfigName("toolbridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("TOOLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got: %s", cfg.Logging.Level)
	}
	if cfg.Project.Dir != "" {
		if info, err := os.Stat(cfg.Project.Dir); err == nil && !info.IsDir() {
			return fmt.Errorf("project.dir %s is not a directory", cfg.Project.Dir)
		}
	}
	return nil
}

// ProfilesPath resolves the profile definition path relative to the
// working directory.
func (c *Config) ProfilesPath() string {
	if filepath.IsAbs(c.Profiles) {
		return c.Profiles
	}
	return filepath.Clean(c.Profiles)
}
