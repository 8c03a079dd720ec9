package config

const (
	defaultLogDir             = "~/.local/share/keyflow/logs"
	defaultCacheDir           = "~/.local/share/keyflow/cache"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultPreferredKeySystem = "com.widevine.alpha"
	defaultProbeCacheFile     = "probes.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		KeySystems: KeySystems{
			Preferred: defaultPreferredKeySystem,
		},
		ProbeCache: ProbeCache{
			Enabled: false,
		},
	}
}
