// Package config loads the geonodes configuration file.
//
// Configuration lives in $XDG_CONFIG_HOME/geonodes/config.yml
// (~/.config/geonodes/config.yml by default). A missing file is not an
// error: every field has a default. Environment variables override the
// file, and a .env file in the working directory is loaded first so those
// variables can be kept out of the shell profile.
//
// Example config.yml:
//
//	catalog: ~/geonodes/catalog.toml
//	strict: true
//	log_level: debug
//	cache:
//	  redis_url: redis://localhost:6379/0
//	  ttl: 24h
//	server:
//	  addr: :8080
//	  rate: 5
//	  burst: 10
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/geonodes/pkg/errors"
)

const (
	// Dir is the directory name under XDG_CONFIG_HOME.
	Dir = "geonodes"
	// File is the config file name.
	File = "config.yml"
)

// Environment variables that override the file.
const (
	EnvCatalog  = "GEONODES_CATALOG"
	EnvStrict   = "GEONODES_STRICT"
	EnvLogLevel = "GEONODES_LOG_LEVEL"
	EnvRedisURL = "GEONODES_REDIS_URL"
	EnvAddr     = "GEONODES_ADDR"
)

// Defaults.
const (
	DefaultLogLevel = "info"
	DefaultAddr     = ":8080"
	DefaultRate     = 5.0
	DefaultBurst    = 10
	DefaultTTL      = 7 * 24 * time.Hour
)

// Config is the parsed configuration.
type Config struct {
	// Catalog is the path of a TOML node catalog replacing the built-in one.
	Catalog  string       `yaml:"catalog,omitempty"`
	Strict   bool         `yaml:"strict,omitempty"`
	LogLevel string       `yaml:"log_level,omitempty"`
	Cache    CacheConfig  `yaml:"cache,omitempty"`
	Server   ServerConfig `yaml:"server,omitempty"`
}

// CacheConfig selects and tunes the artifact cache.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool `yaml:"disabled,omitempty"`
	// Dir overrides the file cache directory.
	Dir string `yaml:"dir,omitempty"`
	// RedisURL selects the Redis backend instead of the file cache.
	RedisURL string   `yaml:"redis_url,omitempty"`
	TTL      Duration `yaml:"ttl,omitempty"`
}

// ServerConfig configures `geonodes serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// Rate is the sustained requests per second allowed per client.
	Rate  float64 `yaml:"rate,omitempty"`
	Burst int     `yaml:"burst,omitempty"`
}

// Duration is a time.Duration written as "24h" or "90m" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/geonodes/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, Dir, File)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the config file at path (Path() when empty), applies .env and
// environment overrides and fills in defaults. A missing default file yields
// the defaults; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parsing config %s", path)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.New(errs.ErrCodeInvalidInput, "%s: not a boolean: %q", EnvStrict, v)
		}
		c.Strict = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(DefaultTTL)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Rate == 0 {
		c.Server.Rate = DefaultRate
	}
	if c.Server.Burst == 0 {
		c.Server.Burst = DefaultBurst
	}
	c.Catalog = ExpandTilde(c.Catalog)
	c.Cache.Dir = ExpandTilde(c.Cache.Dir)
}

// Validate checks field values after defaults have been applied.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrCodeInvalidInput, "log_level must be debug, info, warn or error: %q", c.LogLevel)
	}
	if c.Cache.RedisURL != "" {
		if err := errs.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return err
		}
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Server.Rate < 0 || c.Server.Burst < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "server.rate and server.burst must not be negative")
	}
	return nil
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
