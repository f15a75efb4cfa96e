// Package config loads client configuration from a JSON file.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/polosync/polosync/database"
)

// DefaultHTTPTimeout is applied when the config file sets no timeout
const DefaultHTTPTimeout = 15 * time.Second

// APIConfig holds exchange credentials. Both fields may be empty for
// public-endpoint-only use.
type APIConfig struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// Config is the full client configuration
type Config struct {
	Name string `json:"name"`
	// Verbose enables request level debug logging
	Verbose bool `json:"verbose"`
	// HTTPTimeout is stored as nanoseconds in the JSON file
	HTTPTimeout time.Duration `json:"httpTimeout"`
	API         APIConfig     `json:"api"`
	// DataDir is where local exchange export files, e.g. lendingHistory.csv,
	// are looked up
	DataDir  string          `json:"dataDir"`
	Database database.Config `json:"database"`
}

// Load reads and validates a config file
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}

	if cfg.Name == "" {
		cfg.Name = "polosync"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	return cfg, nil
}
