package config

import (
	"errors"
	"time"
)

const (
	defaultServerAddr    = "127.0.0.1:50051"
	defaultCheckInterval = 3 * time.Second
)

// Config is what the terminal client needs to reach the server.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = defaultServerAddr
	c.OnlineCheckInterval = defaultCheckInterval
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig applies defaults, the optional JSON file and then flags, and
// validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
