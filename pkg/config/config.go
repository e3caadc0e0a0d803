// Package config loads the console configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete console configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Session  SessionConfig  `yaml:"session"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the console's own HTTP listener.
type ServerConfig struct {
	Address   string `yaml:"address"`
	EntryPath string `yaml:"entry_path"` // login page, guard redirect target
	HomePath  string `yaml:"home_path"`  // landing page, role-mismatch target
}

// UpstreamConfig configures the document-QA platform API client.
type UpstreamConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RefreshSkew time.Duration `yaml:"refresh_skew"`
	ProbeEvery  time.Duration `yaml:"probe_interval"`
}

// SessionConfig configures console session lifetimes.
type SessionConfig struct {
	CookieName      string        `yaml:"cookie_name"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// CacheConfig configures the resource caches.
type CacheConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	PollInterval time.Duration `yaml:"poll_interval"`
	FetchRetries int           `yaml:"fetch_retries"`
}

// StorageConfig configures persisted client state.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	Path   string `yaml:"path"`   // sqlite database file
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:   ":8080",
			EntryPath: "/login",
			HomePath:  "/",
		},
		Upstream: UpstreamConfig{
			Timeout:     15 * time.Second,
			RefreshSkew: 30 * time.Second,
			ProbeEvery:  30 * time.Second,
		},
		Session: SessionConfig{
			CookieName:      "docqa_console_session",
			TTL:             12 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Cache: CacheConfig{
			TTL:          30 * time.Second,
			PollInterval: 30 * time.Second,
			FetchRetries: 2,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "data/console.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration at path (optional), applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides configuration from DOCQA_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCQA_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("DOCQA_UPSTREAM_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("DOCQA_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = d
		}
	}
	if v := os.Getenv("DOCQA_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("DOCQA_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("DOCQA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DOCQA_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Session.CookieSecure = b
		}
	}
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required (or set DOCQA_UPSTREAM_URL)")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q (expected memory or sqlite)", c.Storage.Driver)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}
