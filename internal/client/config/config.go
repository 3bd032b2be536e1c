package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the vaultkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP auth API.
//   - DataDir: directory (relative to the working directory) holding the local database.
//   - DatabaseFile: sqlite file name inside DataDir.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: per-request deadline for API calls.
type Config struct {
	ServerURL           string
	DataDir             string
	DatabaseFile        string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DataDir = ".vaultkeeper"
	c.DatabaseFile = "client.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
