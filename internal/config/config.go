// SPDX-License-Identifier: MPL-2.0

// Package config loads and persists the comet configuration file. Values are
// layered: built-in defaults, then the config file, then COMET_* environment
// variables, then command-line flags (applied by the cmd package).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "comet"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// EnvPrefix namespaces environment variable overrides, e.g.
	// COMET_BRANCH=dev.
	EnvPrefix = "COMET"
)

// ErrInvalidRepo is returned when the configured repository is not in
// "owner/name" form.
var ErrInvalidRepo = errors.New(`repository must be in "owner/name" form`)

type (
	// Config is the effective comet configuration.
	Config struct {
		// Repo is the component repository in "owner/name" form.
		Repo string `mapstructure:"repo" toml:"repo"`
		// Branch is the git branch cloned when installing from source.
		Branch string `mapstructure:"branch" toml:"branch"`
		// FromRelease switches installs to the latest release tarball
		// instead of a shallow clone.
		FromRelease bool `mapstructure:"from_release" toml:"from_release"`
		// TimeoutSeconds bounds each network operation.
		TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}

	// LoadOptions control where Load looks for the config file.
	LoadOptions struct {
		// ConfigFilePath, when set, is used exclusively and must exist.
		ConfigFilePath string
		// ConfigDirPath overrides the platform config directory.
		ConfigDirPath string
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Repo:           "cometkit/components",
		Branch:         "main",
		FromRelease:    false,
		TimeoutSeconds: 60,
		Verbose:        false,
	}
}

// Validate checks constraints the file format cannot express.
func (c *Config) Validate() error {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRepo, c.Repo)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	return nil
}

// ConfigDir returns the comet configuration directory using platform
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application
// Support, and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load builds the effective configuration. A missing config file is not an
// error: defaults and environment overrides still apply. The returned path
// names the file actually read, or is empty when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("repo", defaults.Repo)
	v.SetDefault("branch", defaults.Branch)
	v.SetDefault("from_release", defaults.FromRelease)
	v.SetDefault("timeout_seconds", defaults.TimeoutSeconds)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config file %s: %w", opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cfgPath) {
			v.SetConfigFile(cfgPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, "", fmt.Errorf("reading config file %s: %w", cfgPath, err)
			}
			resolvedPath = cfgPath
		}
		// No config file found: defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring an
// explicit option before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// Save writes the configuration to the config directory, creating it if
// needed, and returns the file path.
func Save(cfg *Config, configDirPath string) (string, error) {
	cfgDir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	content, err := GenerateTOML(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// CreateDefault writes a default config file if none exists yet and returns
// its path.
func CreateDefault(configDirPath string) (string, error) {
	cfgDir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cfgPath) {
		return cfgPath, nil
	}

	return Save(DefaultConfig(), configDirPath)
}

// GenerateTOML renders the configuration as a TOML document with a short
// header comment.
func GenerateTOML(cfg *Config) (string, error) {
	body, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Comet configuration file.\n")
	sb.WriteString("# Values here override built-in defaults; COMET_* environment\n")
	sb.WriteString("# variables and command-line flags override values here.\n\n")
	sb.Write(body)
	return sb.String(), nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
