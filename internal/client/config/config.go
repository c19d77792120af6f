package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/flagx"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL string
	APIPrefix string
	// RequestTimeout bounds a single HTTP round trip. Message and completion
	// calls wait on the upstream model, so it is generous by default.
	RequestTimeout time.Duration
}

// LoadDefaults populates c with defaults matching a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.APIPrefix = "/api/v1"
	c.RequestTimeout = 90 * time.Second
}

// LoadConfig builds a Config from defaults, the JSON file and flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg, flagx.ConfigFilePath(os.Args[1:]))
	parseFlags(cfg, os.Args[1:])
	return cfg
}
