package rpc

import (
	"encoding/json"
	"fmt"
	"os"
)

const defaultAddr = ":8480"

// Config holds initialization parameters for a statehub server.
type Config struct {
	// Addr is the listen address, e.g. ":8480".
	Addr string `json:"addr,omitempty"`
	// Observer names a registered observer for the state handle.
	Observer string `json:"observer,omitempty"`
	// InitialState points at a JSON file seeding the state graph.
	InitialState string `json:"initial_state,omitempty"`
	// WatchBuffer is the per-watch update buffer size.
	WatchBuffer int `json:"watch_buffer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        defaultAddr,
		Observer:    "noop",
		WatchBuffer: defaultWatchBuffer,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.InitialState != "" {
		c.InitialState = source.InitialState
	}
	if source.WatchBuffer > 0 {
		c.WatchBuffer = source.WatchBuffer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
