package config

import (
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeKeySystems()
	return c.normalizeProbeCache()
}

func (c *Config) normalizePaths() error {
	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	cacheDir, err := expandPath(c.Paths.CacheDir)
	if err != nil {
		return err
	}
	c.Paths.CacheDir = cacheDir
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeKeySystems() {
	// Key-system identifiers are case-sensitive tokens; trim but never fold.
	c.KeySystems.Preferred = strings.TrimSpace(c.KeySystems.Preferred)
	if c.KeySystems.Preferred == "" {
		c.KeySystems.Preferred = defaultPreferredKeySystem
	}
	c.KeySystems.AudioRobustness = strings.TrimSpace(c.KeySystems.AudioRobustness)
	c.KeySystems.VideoRobustness = strings.TrimSpace(c.KeySystems.VideoRobustness)
}

func (c *Config) normalizeProbeCache() error {
	path := strings.TrimSpace(c.ProbeCache.Path)
	if path == "" {
		path = filepath.Join(c.Paths.CacheDir, defaultProbeCacheFile)
	}
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	c.ProbeCache.Path = expanded
	return nil
}
