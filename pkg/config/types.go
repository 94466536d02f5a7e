package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent rlmtrace configuration stored as
// config.toml in the .rlmtrace/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Upstream    UpstreamConfig    `toml:"upstream"`
	API         APIConfig         `toml:"api"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Capture     CaptureConfig     `toml:"capture"`
}

// UpstreamConfig names the producer that runs sessions.
type UpstreamConfig struct {
	URL           string `toml:"url,omitempty"`
	Backend       string `toml:"backend,omitempty"`
	MaxIterations int    `toml:"max_iterations,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects the trace store. At most one backend should be set;
// with none set traces are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	LibSQLURL   string `toml:"libsql_url,omitempty"`
	RedisURL    string `toml:"redis_url,omitempty"`
	RedisPrefix string `toml:"redis_prefix,omitempty"`
}

// EventStreamConfig configures trace completion events. Publishing is
// disabled without brokers.
type EventStreamConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// CaptureConfig configures raw stream capture.
type CaptureConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"upstream.url": {
		get: func(c *Config) string { return c.Upstream.URL },
		set: func(c *Config, v string) error { c.Upstream.URL = v; return nil },
	},
	"upstream.backend": {
		get: func(c *Config) string { return c.Upstream.Backend },
		set: func(c *Config, v string) error { c.Upstream.Backend = v; return nil },
	},
	"upstream.max_iterations": {
		get: func(c *Config) string {
			if c.Upstream.MaxIterations == 0 {
				return ""
			}
			return strconv.Itoa(c.Upstream.MaxIterations)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for upstream.max_iterations: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for upstream.max_iterations: %d is negative", n)
			}
			c.Upstream.MaxIterations = n
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"storage.libsql_url": {
		get: func(c *Config) string { return c.Storage.LibSQLURL },
		set: func(c *Config, v string) error { c.Storage.LibSQLURL = v; return nil },
	},
	"storage.redis_url": {
		get: func(c *Config) string { return c.Storage.RedisURL },
		set: func(c *Config, v string) error { c.Storage.RedisURL = v; return nil },
	},
	"storage.redis_prefix": {
		get: func(c *Config) string { return c.Storage.RedisPrefix },
		set: func(c *Config, v string) error { c.Storage.RedisPrefix = v; return nil },
	},
	"eventstream.kafka_brokers": {
		get: func(c *Config) string { return c.EventStream.KafkaBrokers },
		set: func(c *Config, v string) error { c.EventStream.KafkaBrokers = v; return nil },
	},
	"eventstream.kafka_topic": {
		get: func(c *Config) string { return c.EventStream.KafkaTopic },
		set: func(c *Config, v string) error { c.EventStream.KafkaTopic = v; return nil },
	},
	"capture.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Capture.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for capture.enabled: %w", err)
			}
			c.Capture.Enabled = b
			return nil
		},
	},
	"capture.dir": {
		get: func(c *Config) string { return c.Capture.Dir },
		set: func(c *Config, v string) error { c.Capture.Dir = v; return nil },
	},
}

// orderedKeys lists configKeys in the TOML section layout.
var orderedKeys = []string{
	"upstream.url",
	"upstream.backend",
	"upstream.max_iterations",
	"api.listen",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.libsql_url",
	"storage.redis_url",
	"storage.redis_prefix",
	"eventstream.kafka_brokers",
	"eventstream.kafka_topic",
	"capture.enabled",
	"capture.dir",
}
