package config

const (
	defaultLibraryDir     = "~/.local/share/cardex/library"
	defaultLogDir         = "~/.local/share/cardex/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultFetchTimeout   = 30
	defaultFetchUserAgent = "cardex/dev"
	defaultFetchMaxMiB    = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Fetch: Fetch{
			Enabled:        true,
			TimeoutSeconds: defaultFetchTimeout,
			UserAgent:      defaultFetchUserAgent,
			MaxMiB:         defaultFetchMaxMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
