// Package config loads sexpr settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sexpr "github.com/rphilander/sexpr/core"
)

// Config holds every setting shared by the CLI and the service hosts.
type Config struct {
	Socket      string `yaml:"socket"`
	HTTPAddr    string `yaml:"http_addr"`
	HistoryDB   string `yaml:"history_db"`
	Cache       string `yaml:"cache"`
	MaxDepth    int    `yaml:"max_depth"`
	RunTimeout  string `yaml:"run_timeout"`
	MaxTraces   int    `yaml:"max_traces"`
	LogLevel    string `yaml:"log_level"`
	ReplHistory string `yaml:"repl_history"`
}

// Default returns the settings used when no file or variable overrides them.
func Default() *Config {
	return &Config{
		Socket:      "/tmp/sexpr.sock",
		Cache:       sexpr.CacheIdentity.String(),
		MaxDepth:    sexpr.DefaultMaxDepth,
		RunTimeout:  "30s",
		MaxTraces:   1000,
		LogLevel:    "info",
		ReplHistory: ".sexpr_history",
	}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	return "config validation failed: " + strings.Join(e.Issues, "; ")
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer file.Close()
		if err := cfg.decode(file); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML from r onto cfg. Unknown keys are rejected; an
// empty document leaves cfg unchanged.
func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Socket = envOr("SEXPR_SOCK", c.Socket)
	c.HTTPAddr = envOr("SEXPR_HTTP", c.HTTPAddr)
	c.HistoryDB = envOr("SEXPR_HISTORY", c.HistoryDB)
	c.LogLevel = envOr("SEXPR_LOG_LEVEL", c.LogLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var issues []string
	if c.Socket == "" {
		issues = append(issues, "socket must not be empty")
	}
	if _, err := sexpr.ParseCacheMode(c.Cache); err != nil {
		issues = append(issues, err.Error())
	}
	if c.MaxDepth <= 0 {
		issues = append(issues, fmt.Sprintf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if c.MaxTraces <= 0 {
		issues = append(issues, fmt.Sprintf("max_traces must be positive, got %d", c.MaxTraces))
	}
	if _, err := c.Timeout(); err != nil {
		issues = append(issues, err.Error())
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// CacheMode returns the parsed cache setting.
func (c *Config) CacheMode() sexpr.CacheMode {
	m, _ := sexpr.ParseCacheMode(c.Cache)
	return m
}

// Timeout parses run_timeout. An empty value or "0" means no limit.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RunTimeout == "" || c.RunTimeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RunTimeout)
	if err != nil {
		return 0, fmt.Errorf("run_timeout %q: %w", c.RunTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("run_timeout must not be negative, got %s", c.RunTimeout)
	}
	return d, nil
}
