// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

// Package config loads UserPortal configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// command-line flags that were explicitly set. DATABASE_URL from the
// environment is used when no database URL is configured.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DatabaseURLEnv is consulted when database.url is empty.
const DatabaseURLEnv = "DATABASE_URL"

// Configuration keys. Flag names match the keys.
const (
	KeyHTTPAddr            = "http.addr"
	KeyMetricsAddr         = "metrics.addr"
	KeyLogFormat           = "log.format"
	KeyLogLevel            = "log.level"
	KeyDatabaseURL         = "database.url"
	KeyDatabaseMigrate     = "database.auto_migrate"
	KeySessionTTL          = "session.ttl"
	KeySessionSweep        = "session.sweep_interval"
	KeyWebStaticDir        = "web.static_dir"
	KeyWebRequireCaptcha   = "web.require_captcha"
	KeyWebSecureCookie     = "web.secure_cookie"
	KeyHTTPShutdownTimeout = "http.shutdown_timeout"
)

var defaults = map[string]any{
	KeyHTTPAddr:            ":3000",
	KeyHTTPShutdownTimeout: "10s",
	KeyMetricsAddr:         "127.0.0.1:9100",
	KeyLogFormat:           "json",
	KeyLogLevel:            "info",
	KeyDatabaseURL:         "",
	KeyDatabaseMigrate:     false,
	KeySessionTTL:          "0s",
	KeySessionSweep:        "1m",
	KeyWebStaticDir:        "",
	KeyWebRequireCaptcha:   false,
	KeyWebSecureCookie:     false,
}

// Config is the complete runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Web      WebConfig      `koanf:"web"`
}

// HTTPConfig configures the public HTTP listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures the user store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// SessionConfig configures the session store. A zero TTL means sessions
// live until logout or restart.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// WebConfig configures the HTTP handlers.
type WebConfig struct {
	StaticDir      string `koanf:"static_dir"`
	RequireCaptcha bool   `koanf:"require_captcha"`
	SecureCookie   bool   `koanf:"secure_cookie"`
}

// AddDatabaseFlags registers the flags needed to reach the database.
func AddDatabaseFlags(fs *pflag.FlagSet) {
	fs.String(KeyDatabaseURL, "", "PostgreSQL URL (default: $"+DatabaseURLEnv+")")
}

// AddServeFlags registers every flag understood by the serve command.
func AddServeFlags(fs *pflag.FlagSet) {
	AddDatabaseFlags(fs)
	fs.String(KeyHTTPAddr, ":3000", "HTTP listen address")
	fs.Duration(KeyHTTPShutdownTimeout, 10*time.Second, "graceful shutdown timeout")
	fs.String(KeyMetricsAddr, "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	fs.String(KeyLogFormat, "json", "log format (json or text)")
	fs.String(KeyLogLevel, "info", "log level (debug, info, warn, error)")
	fs.Bool(KeyDatabaseMigrate, false, "apply pending migrations on startup")
	fs.Duration(KeySessionTTL, 0, "session lifetime (0 = until logout or restart)")
	fs.Duration(KeySessionSweep, time.Minute, "interval for removing expired sessions")
	fs.String(KeyWebStaticDir, "", "directory of static pages to serve")
	fs.Bool(KeyWebRequireCaptcha, false, "require captcha_answer to equal captcha_sum on registration")
	fs.Bool(KeyWebSecureCookie, false, "set the Secure attribute on the session cookie")
}

// Load builds a Config from defaults, the optional YAML file at path and
// the explicitly set flags in fs. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable by the serve command.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", KeyHTTPAddr).Errorf("http.addr is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", KeyHTTPShutdownTimeout).
			Errorf("http.shutdown_timeout must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("key", KeyLogFormat).
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("key", KeyLogLevel).
			Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Session.TTL < 0 {
		return oops.Code("CONFIG_INVALID").With("key", KeySessionTTL).Errorf("session.ttl cannot be negative")
	}
	if c.Session.TTL > 0 && c.Session.TTL < time.Second {
		return oops.Code("CONFIG_INVALID").With("key", KeySessionTTL).
			Errorf("session.ttl must be at least 1s, got %s", c.Session.TTL)
	}
	if c.Session.TTL > 0 && c.Session.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", KeySessionSweep).
			Errorf("session.sweep_interval must be positive when session.ttl is set")
	}
	if c.Database.AutoMigrate && c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", KeyDatabaseMigrate).
			Errorf("database.auto_migrate requires database.url")
	}
	return nil
}

// UsesDatabase reports whether a PostgreSQL user store is configured.
func (c *Config) UsesDatabase() bool {
	return c.Database.URL != ""
}
