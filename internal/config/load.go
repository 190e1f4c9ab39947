package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "roboprop.config.yaml"

// Environment variables consulted after the config file.
const (
	EnvFileServerURL    = "FILESERVER_URL"
	EnvFileServerAPIKey = "FILESERVER_API_KEY"
	EnvBlenderPath      = "BLENDER_PATH"
)

// Load loads configuration with priority: defaults < file < environment < flags.
// A nil flags value applies no overrides.
func Load(flags *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	var configPath string
	if flags != nil {
		configPath = flags.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyEnv(cfg, os.LookupEnv)

	// Apply CLI flags (highest priority)
	if flags != nil {
		flags.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "RoboProp")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "RoboProp")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "roboprop")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "roboprop")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvFileServerURL); ok && v != "" {
		cfg.FileServer.URL = v
	}
	if v, ok := lookup(EnvFileServerAPIKey); ok && v != "" {
		cfg.FileServer.APIKey = v
	}
	if v, ok := lookup(EnvBlenderPath); ok && v != "" {
		cfg.Blender.Path = v
	}
}
