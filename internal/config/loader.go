package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("./config")      // Alternative config directory
		v.AddConfigPath("/etc/xmrchart") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. XMRCHART_SERVER_HTTP_PORT
	v.SetEnvPrefix("XMRCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 5555)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.body_limit", 4*1024*1024)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_keys", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")

	// Engine defaults
	v.SetDefault("engine.seasonal_period", 12)
	v.SetDefault("engine.include_trend", false)
	v.SetDefault("engine.include_seasonality", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.prefix", "xmrchart")
	v.SetDefault("cache.compress", true)

	// Notify defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.type", "memory")
	v.SetDefault("notify.subject_prefix", "xmr.signals")
	v.SetDefault("notify.timeout", "5s")
	v.SetDefault("notify.redis_stream", "xmrchart")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applySourceDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applySourceDefaults fills per-source fields viper cannot default inside a list
func (c *Config) applySourceDefaults() {
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Title == "" {
			s.Title = s.Name
		}
		if s.DateField == "" {
			s.DateField = "date"
		}
		if s.ValueField == "" {
			s.ValueField = "value"
		}
		if s.Scale == 0 {
			s.Scale = 1
		}
	}
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			HTTPPort:        5555,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       4 * 1024 * 1024,
		},
		Auth: AuthConfig{
			APIKeys: []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Engine: EngineConfig{
			SeasonalPeriod: 12,
		},
		Sources: []SourceConfig{},
		Cache: CacheConfig{
			Type:       "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
			Prefix:     "xmrchart",
			Compress:   true,
		},
		Notify: NotifyConfig{
			Type:          "memory",
			SubjectPrefix: "xmr.signals",
			Timeout:       5 * time.Second,
			RedisStream:   "xmrchart",
		},
	}
}
