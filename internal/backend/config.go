package backend

import (
	"errors"
	"time"

	"contract-bot/internal/common/config"
)

type Config struct {
	URL           string
	APIKey        string
	UserAgent     string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	CacheTTL      time.Duration
	CacheCapacity int
	DefaultLimit  int
}

func DefaultConfig() *Config {
	return &Config{
		UserAgent:     "contract-bot/1.0",
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
		CacheTTL:      5 * time.Minute,
		CacheCapacity: 100,
		DefaultLimit:  50,
	}
}

// FromAppConfig maps the loaded application config onto backend settings.
func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	c.URL = cfg.Backend.URL
	c.APIKey = cfg.Backend.APIKey
	if cfg.App.Version != "" {
		c.UserAgent = "contract-bot/" + cfg.App.Version
	}
	if cfg.Backend.Timeout > 0 {
		c.Timeout = config.GetDuration(cfg.Backend.Timeout)
	}
	if cfg.Backend.RetryAttempts > 0 {
		c.RetryAttempts = cfg.Backend.RetryAttempts
	}
	if cfg.Backend.RetryDelay > 0 {
		c.RetryDelay = config.GetDuration(cfg.Backend.RetryDelay)
	}
	if cfg.Cache.TTL > 0 {
		c.CacheTTL = config.GetDuration(cfg.Cache.TTL)
	}
	if cfg.Cache.Capacity > 0 {
		c.CacheCapacity = cfg.Cache.Capacity
	}
	return c
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("backend url is required")
	}
	if c.APIKey == "" {
		return errors.New("backend api key is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		return errors.New("retry attempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}
