package testsupport

import (
	"path/filepath"
	"testing"

	"fmtd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test and
// timings tightened enough for fast test runs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateFile = filepath.Join(base, "server.json")
	cfg.Paths.LockFile = filepath.Join(base, "fmtd.lock")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Lifecycle.StartupPollIntervalMS = 20
	cfg.Lifecycle.StartupPollAttempts = 25
	cfg.Lifecycle.KillGraceMS = 200
	cfg.Lock.RetryDelayMS = 10
	cfg.HTTP.HealthTimeoutMS = 500
	cfg.HTTP.ProbeTimeoutMS = 50
	cfg.HTTP.RequestTimeoutSeconds = 5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPort overrides the server port on the test config.
func WithPort(port int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.Port = port
	}
}

// WithCommand overrides the server command on the test config.
func WithCommand(command ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.Command = command
	}
}
