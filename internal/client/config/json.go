package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/neuroresume/internal/timex"
)

// fileConfig is the on-disk shape of the CLI config. Empty fields leave
// the current value untouched.
type fileConfig struct {
	ServerURL      string         `json:"server_url"`
	APIPrefix      string         `json:"api_prefix"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJSON overlays cfg with the file at path. Read or decode errors panic.
func parseJSON(cfg *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		panic(err)
	}

	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.APIPrefix != "" {
		cfg.APIPrefix = fc.APIPrefix
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
}
