package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Auth    AuthConfig     `mapstructure:"auth"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Engine  EngineConfig   `mapstructure:"engine"`
	Sources []SourceConfig `mapstructure:"sources"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Notify  NotifyConfig   `mapstructure:"notify"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`             // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort        int           `mapstructure:"http_port"`        // HTTP server port
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`     // Request read timeout
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`    // Response write timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // Grace period for in-flight requests
	BodyLimit       int           `mapstructure:"body_limit"`       // Max request body in bytes
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// EngineConfig holds the analysis defaults applied when a request leaves them unset
type EngineConfig struct {
	SeasonalPeriod     int  `mapstructure:"seasonal_period"`     // Bucket count for seasonality (default: 12)
	IncludeTrend       bool `mapstructure:"include_trend"`       // Fit a trend unless the request says otherwise
	IncludeSeasonality bool `mapstructure:"include_seasonality"` // Compute seasonality unless the request says otherwise
}

// SourceConfig describes a CSV-backed metric served under /v1/sources
type SourceConfig struct {
	Name       string  `mapstructure:"name"`        // URL-safe identifier
	Title      string  `mapstructure:"title"`       // Display title (default: name)
	Path       string  `mapstructure:"path"`        // CSV file path
	DateField  string  `mapstructure:"date_field"`  // Date column header (default: "date")
	ValueField string  `mapstructure:"value_field"` // Value column header (default: "value")
	Scale      float64 `mapstructure:"scale"`       // Multiplier applied to values (default: 1)
}

// CacheConfig represents analysis cache configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"`        // none, memory (default), redis, layered
	TTL        time.Duration `mapstructure:"ttl"`         // Entry lifetime
	MaxEntries int           `mapstructure:"max_entries"` // In-process entry limit
	RedisURL   string        `mapstructure:"redis_url"`   // Redis URL (e.g., redis://localhost:6379/0)
	Prefix     string        `mapstructure:"prefix"`      // Redis key prefix
	Compress   bool          `mapstructure:"compress"`    // Snappy-compress cached payloads
}

// NotifyConfig represents signal notification configuration
type NotifyConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Type          string        `mapstructure:"type"`           // memory, nats, redis, kafka
	URL           string        `mapstructure:"url"`            // Server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	SubjectPrefix string        `mapstructure:"subject_prefix"` // Events go to <prefix>.<metric>
	Timeout       time.Duration `mapstructure:"timeout"`        // Publish timeout

	// Redis-specific options
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "xmrchart")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[c.Sources[i].Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, c.Sources[i].Name)
		}
		seen[c.Sources[i].Name] = true
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// Validate validates engine configuration
func (c *EngineConfig) Validate() error {
	if c.SeasonalPeriod < 1 {
		return fmt.Errorf("engine.seasonal_period must be at least 1")
	}
	return nil
}

// Validate validates a source entry
func (c *SourceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if strings.ContainsAny(c.Name, "/?#. ") {
		return fmt.Errorf("name %q must not contain '/', '?', '#', '.' or spaces", c.Name)
	}

	if c.Path == "" {
		return fmt.Errorf("source %q: path is required", c.Name)
	}

	if c.Scale < 0 {
		return fmt.Errorf("source %q: scale cannot be negative", c.Name)
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	switch strings.ToLower(c.Type) {
	case "", "none", "memory":
	case "redis", "layered":
		if c.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for type %q", c.Type)
		}
	default:
		return fmt.Errorf("cache.type must be one of: none, memory, redis, layered")
	}

	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	if c.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries cannot be negative")
	}

	return nil
}

// Validate validates notification configuration
func (c *NotifyConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch strings.ToLower(c.Type) {
	case "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("notify.url is required for type %q", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("notify.kafka_brokers is required for type kafka")
		}
	default:
		return fmt.Errorf("notify.type must be one of: memory, nats, redis, kafka")
	}

	if c.SubjectPrefix == "" {
		return fmt.Errorf("notify.subject_prefix is required")
	}

	return nil
}
