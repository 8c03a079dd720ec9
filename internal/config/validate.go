package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateKeySystems(); err != nil {
		return err
	}
	return c.validateProbeCache()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateKeySystems() error {
	if c.KeySystems.Preferred == "" {
		return errors.New("keysystems.preferred must be set")
	}
	return nil
}

func (c *Config) validateProbeCache() error {
	if c.ProbeCache.Enabled && c.ProbeCache.Path == "" {
		return errors.New("probe_cache.path must be set when probe_cache.enabled is true")
	}
	return nil
}
