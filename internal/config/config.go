package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all semmem configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Memory   MemoryConfig   `toml:"memory"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type MemoryConfig struct {
	Language          string  `toml:"language"`            // "ru" or "en"
	AutoConnect       string  `toml:"auto_connect"`        // "sync", "async", "off"
	CacheEntries      int64   `toml:"cache_entries"`       // 0 disables the read cache
	RetentionEnabled  bool    `toml:"retention_enabled"`   // background forget timer
	RetentionMaxAge   int     `toml:"retention_max_age"`   // days
	RetentionMinScore float64 `toml:"retention_min_score"` // importance threshold
	RetentionHours    int     `toml:"retention_hours"`     // interval between sweeps
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38880,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Memory: MemoryConfig{
			Language:          "en",
			AutoConnect:       "sync",
			CacheEntries:      1024,
			RetentionEnabled:  false,
			RetentionMaxAge:   30,
			RetentionMinScore: 0.3,
			RetentionHours:    24,
		},
	}
}

// Load reads a TOML config file on top of the defaults. A missing file is
// not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// RetentionInterval converts the configured sweep spacing to a duration.
func (c *Config) RetentionInterval() time.Duration {
	if c.Memory.RetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Memory.RetentionHours) * time.Hour
}
