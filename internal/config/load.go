package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/modelconv/pkg/stl"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	return cfg, nil
}

// FileName is the config file name searched for in the working directory
// and in ConfigDir.
const FileName = "modelconv.yaml"

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
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
		return filepath.Join(home, "Library", "Application Support", "modelconv")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "modelconv")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "modelconv")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "modelconv")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate rejects settings the mesh and svg packages cannot use.
func (c *Config) Validate() error {
	if c.SVG.Scale <= 0 {
		return fmt.Errorf("svg.scale must be positive, got %v", c.SVG.Scale)
	}
	if c.SVG.Margin < 0 {
		return fmt.Errorf("svg.margin must not be negative, got %v", c.SVG.Margin)
	}
	if len(c.Export.Header) > stl.HeaderSize {
		return fmt.Errorf("export.header is %d bytes, at most %d fit", len(c.Export.Header), stl.HeaderSize)
	}
	return nil
}
