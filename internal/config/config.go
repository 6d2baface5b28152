// Package config handles loading and resolving fredmcp configuration.
// All settings come from environment variables, with an optional .env file in
// the working directory providing defaults. Configuration is read once at
// bootstrap and is read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvAPIKey          = "FRED_API_KEY"
	EnvBaseURL         = "FRED_BASE_URL"
	EnvUserAgent       = "FRED_USER_AGENT"
	EnvTimeoutSeconds  = "FRED_TIMEOUT_SECONDS"
	EnvCacheBackend    = "CACHE_BACKEND"
	EnvCacheDefaultTTL = "CACHE_DEFAULT_TTL"
	EnvCacheExternal   = "CACHE_EXTERNAL_URL"
	EnvCacheDir        = "CACHE_DIR"
	EnvRateLimitMax    = "RATE_LIMIT_MAX"
	EnvRateLimitWindow = "RATE_LIMIT_WINDOW_SECONDS"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvInflationFanout = "WORKFLOW_INFLATION_FANOUT"
	EnvGDPFanout       = "WORKFLOW_GDP_FANOUT"
	EnvMaxRegions      = "WORKFLOW_MAX_REGIONS"
)

// Defaults.
const (
	DefaultBaseURL         = "https://api.stlouisfed.org"
	DefaultTimeout         = 30 * time.Second
	DefaultCacheBackend    = "memory"
	DefaultCacheTTL        = 300
	DefaultRateLimitMax    = 120
	DefaultRateLimitWindow = 60
	DefaultLogLevel        = "INFO"
	DefaultLogFormat       = "plain"
	DefaultInflationFanout = 8
	DefaultGDPFanout       = 10
	DefaultMaxRegions      = 10
)

// Config is the fully-resolved runtime configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	CacheBackend    string // memory | disk | external
	CacheDefaultTTL int    // seconds; namespaces may override
	CacheExternal   string // connection string for the external backend
	CacheDir        string // root for the disk backend

	RateLimitMax    int
	RateLimitWindow time.Duration

	LogLevel  string
	LogFormat string // plain | json

	InflationFanout int
	GDPFanout       int
	MaxRegions      int
}

// Load resolves configuration from the environment, layering an optional
// .env file underneath. Environment variables always win.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvBaseURL, DefaultBaseURL)
	v.SetDefault(EnvUserAgent, "fredmcp/"+Version)
	v.SetDefault(EnvTimeoutSeconds, int(DefaultTimeout.Seconds()))
	v.SetDefault(EnvCacheBackend, DefaultCacheBackend)
	v.SetDefault(EnvCacheDefaultTTL, DefaultCacheTTL)
	v.SetDefault(EnvRateLimitMax, DefaultRateLimitMax)
	v.SetDefault(EnvRateLimitWindow, DefaultRateLimitWindow)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvLogFormat, DefaultLogFormat)
	v.SetDefault(EnvInflationFanout, DefaultInflationFanout)
	v.SetDefault(EnvGDPFanout, DefaultGDPFanout)
	v.SetDefault(EnvMaxRegions, DefaultMaxRegions)

	// Layer an optional .env file under the live environment.
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading .env: %w", err)
		}
	}

	cfg := &Config{
		APIKey:          v.GetString(EnvAPIKey),
		BaseURL:         strings.TrimRight(v.GetString(EnvBaseURL), "/"),
		UserAgent:       v.GetString(EnvUserAgent),
		Timeout:         time.Duration(v.GetInt(EnvTimeoutSeconds)) * time.Second,
		CacheBackend:    strings.ToLower(v.GetString(EnvCacheBackend)),
		CacheDefaultTTL: v.GetInt(EnvCacheDefaultTTL),
		CacheExternal:   v.GetString(EnvCacheExternal),
		CacheDir:        v.GetString(EnvCacheDir),
		RateLimitMax:    v.GetInt(EnvRateLimitMax),
		RateLimitWindow: time.Duration(v.GetInt(EnvRateLimitWindow)) * time.Second,
		LogLevel:        strings.ToUpper(v.GetString(EnvLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(EnvLogFormat)),
		InflationFanout: v.GetInt(EnvInflationFanout),
		GDPFanout:       v.GetInt(EnvGDPFanout),
		MaxRegions:      v.GetInt(EnvMaxRegions),
	}

	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.CacheDir = filepath.Join(home, ".fredmcp", "cache")
		} else {
			cfg.CacheDir = filepath.Join(os.TempDir(), "fredmcp-cache")
		}
	}
	return cfg, nil
}

// Validate returns an error if required fields are missing or inconsistent.
// A failure here is fatal at bootstrap (error kind CONFIG).
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New(
			"FRED_API_KEY is not set.\n\n" +
				"Export it or put it in a .env file:\n" +
				"  export FRED_API_KEY=YOUR_KEY\n\n" +
				"Get a free key at https://fred.stlouisfed.org/docs/api/api_key.html",
		)
	}
	switch c.CacheBackend {
	case "memory", "disk":
	case "external":
		if c.CacheExternal == "" {
			return fmt.Errorf("%s is required when %s=external", EnvCacheExternal, EnvCacheBackend)
		}
	default:
		return fmt.Errorf("invalid %s %q: expected memory, disk, or external", EnvCacheBackend, c.CacheBackend)
	}
	switch c.LogFormat {
	case "plain", "json":
	default:
		return fmt.Errorf("invalid %s %q: expected plain or json", EnvLogFormat, c.LogFormat)
	}
	if c.RateLimitMax < 1 {
		return fmt.Errorf("%s must be >= 1, got %d", EnvRateLimitMax, c.RateLimitMax)
	}
	if c.RateLimitWindow < time.Second {
		return fmt.Errorf("%s must be >= 1, got %s", EnvRateLimitWindow, c.RateLimitWindow)
	}
	return nil
}

// RedactedAPIKey returns the API key with most characters replaced by
// asterisks. Safe for logging and display.
func (c *Config) RedactedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return c.APIKey[:2] + "****" + c.APIKey[len(c.APIKey)-2:]
}
