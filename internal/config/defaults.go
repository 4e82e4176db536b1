package config

const (
	defaultStateFile             = "~/.local/share/fmtd/server.json"
	defaultLockFile              = "~/.local/share/fmtd/fmtd.lock"
	defaultLogDir                = "~/.local/share/fmtd/logs"
	defaultServerExecutable      = "fmt-server"
	defaultServerPort            = 7433
	defaultIdleTimeoutSeconds    = 3600
	defaultStartupPollIntervalMS = 200
	defaultStartupPollAttempts   = 50
	defaultKillGraceMS           = 500
	defaultLockStaleSeconds      = 10
	defaultLockRetryAttempts     = 5
	defaultLockRetryDelayMS      = 100
	defaultHealthTimeoutMS       = 2000
	defaultProbeTimeoutMS        = 50
	defaultRequestTimeoutSeconds = 30
	defaultHistoryKeep           = 200
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateFile: defaultStateFile,
			LockFile:  defaultLockFile,
			LogDir:    defaultLogDir,
		},
		Server: Server{
			Command: []string{defaultServerExecutable},
			Port:    defaultServerPort,
		},
		Lifecycle: Lifecycle{
			IdleTimeoutSeconds:    defaultIdleTimeoutSeconds,
			StartupPollIntervalMS: defaultStartupPollIntervalMS,
			StartupPollAttempts:   defaultStartupPollAttempts,
			KillGraceMS:           defaultKillGraceMS,
		},
		Lock: Lock{
			StaleSeconds:  defaultLockStaleSeconds,
			RetryAttempts: defaultLockRetryAttempts,
			RetryDelayMS:  defaultLockRetryDelayMS,
		},
		HTTP: HTTP{
			HealthTimeoutMS:       defaultHealthTimeoutMS,
			ProbeTimeoutMS:        defaultProbeTimeoutMS,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		History: History{
			Enabled: true,
			Keep:    defaultHistoryKeep,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
