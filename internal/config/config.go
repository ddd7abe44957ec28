// Package config loads detype configuration from .detype.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up in the docs root.
const DefaultConfigName = ".detype.yaml"

// Config holds all detype configuration.
type Config struct {
	// Tags is the fence language allow-list; matches are case-sensitive.
	Tags []string `yaml:"tags"`

	// JSX enables the TSX grammar for snippet parsing.
	JSX bool `yaml:"jsx"`

	// Mode is "mutate" (write erased text back into the file) or "emit"
	// (report the erased text without touching files).
	Mode string `yaml:"mode"`

	// Include lists file suffixes to scan.
	Include []string `yaml:"include"`

	// Exclude lists directory names skipped during discovery.
	Exclude []string `yaml:"exclude"`

	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig configures the snippet result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tags:    []string{"ts", "tsx", "typescript"},
		JSX:     true,
		Mode:    "mutate",
		Include: []string{".md", ".mdx"},
		Exclude: []string{"node_modules", ".git"},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".detype/cache.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when it
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets DETYPE_* variables win over the file.
func (c *Config) applyEnvOverrides() {
	if tags := os.Getenv("DETYPE_TAGS"); tags != "" {
		c.Tags = splitList(tags)
	}
	if mode := os.Getenv("DETYPE_MODE"); mode != "" {
		c.Mode = mode
	}
	if jsx := os.Getenv("DETYPE_JSX"); jsx != "" {
		c.JSX = jsx != "0" && jsx != "false"
	}
	if level := os.Getenv("DETYPE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if cache := os.Getenv("DETYPE_CACHE"); cache != "" {
		c.Cache.Enabled = cache != "0" && cache != "false"
	}
	if path := os.Getenv("DETYPE_CACHE_PATH"); path != "" {
		c.Cache.Path = path
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Tags) == 0 {
		return fmt.Errorf("tags must not be empty")
	}
	if c.Mode != "mutate" && c.Mode != "emit" {
		return fmt.Errorf("unknown mode %q (want mutate or emit)", c.Mode)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include must not be empty")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
