package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/foodkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their current values.
type JsonConfig struct {
	ServerURL          string         `json:"server_url"`
	StorePath          string         `json:"store_path"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	RevalidateInterval timex.Duration `json:"revalidate_interval"`
	LogLevel           string         `json:"log_level"`
}

// parseJSON overlays cfg with the file at path. An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RevalidateInterval.Duration != 0 {
		cfg.RevalidateInterval = jc.RevalidateInterval.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
