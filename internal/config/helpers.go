package config

import (
	"net"
	"path/filepath"
	"strconv"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// ResolveSourcePaths makes relative source paths relative to baseDir,
// normally the directory holding the config file
func (c *Config) ResolveSourcePaths(baseDir string) {
	if baseDir == "" {
		return
	}
	for i := range c.Sources {
		if c.Sources[i].Path != "" && !filepath.IsAbs(c.Sources[i].Path) {
			c.Sources[i].Path = filepath.Join(baseDir, c.Sources[i].Path)
		}
	}
}

