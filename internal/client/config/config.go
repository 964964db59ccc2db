package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/flagx"
)

// Config holds runtime settings for the FoodKeeper CLI.
type Config struct {
	// ServerURL is the backend base URL, scheme://host[:port].
	ServerURL string `env:"SERVER_URL"`
	// StorePath is the SQLite file holding the credential.
	StorePath          string        `env:"STORE_PATH"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	RevalidateInterval time.Duration `env:"REVALIDATE_INTERVAL"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.StorePath = "foodkeeper.db"
	c.RequestTimeout = 10 * time.Second
	c.RevalidateInterval = time.Minute
	c.LogLevel = "info"
}

// Load builds a Config from defaults, the JSON file named by -c/--config in
// args, the .env file and the environment. Flags are bound separately with
// BindFlags once the command tree exists.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, DotEnvFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is empty")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RevalidateInterval <= 0 {
		return fmt.Errorf("revalidate interval must be positive, got %s", c.RevalidateInterval)
	}
	return nil
}
