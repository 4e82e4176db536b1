package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	StateFile string `toml:"state_file"`
	LockFile  string `toml:"lock_file"`
	LogDir    string `toml:"log_dir"`
}

// Server contains the external formatting server launch settings.
type Server struct {
	// Command is the executable and leading arguments used to launch the
	// server. The listening port is appended as "--port <port>".
	Command []string `toml:"command"`
	Port    int      `toml:"port"`
}

// Lifecycle contains server lifecycle timing.
type Lifecycle struct {
	IdleTimeoutSeconds    int `toml:"idle_timeout_seconds"`
	StartupPollIntervalMS int `toml:"startup_poll_interval_ms"`
	StartupPollAttempts   int `toml:"startup_poll_attempts"`
	KillGraceMS           int `toml:"kill_grace_ms"`
}

// Lock contains invocation lock settings.
type Lock struct {
	StaleSeconds  int `toml:"stale_seconds"`
	RetryAttempts int `toml:"retry_attempts"`
	RetryDelayMS  int `toml:"retry_delay_ms"`
}

// HTTP contains timeouts for calls against the formatting server.
type HTTP struct {
	HealthTimeoutMS       int `toml:"health_timeout_ms"`
	ProbeTimeoutMS        int `toml:"probe_timeout_ms"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// History contains configuration for the invocation history store.
type History struct {
	Enabled bool `toml:"enabled"`
	Keep    int  `toml:"keep"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fmtd.
//
// Configuration sections by subsystem:
//   - Paths: state file, lock file, log directory
//   - Server: formatting server command and listening port
//   - Lifecycle: idle reaping, startup polling, kill escalation
//   - Lock: staleness threshold and acquisition retries
//   - HTTP: health check and format request timeouts
//   - History: invocation history retention
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	Lifecycle Lifecycle `toml:"lifecycle"`
	Lock      Lock      `toml:"lock"`
	HTTP      HTTP      `toml:"http"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fmtd/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fmtd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories fmtd writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.LogDir,
		filepath.Dir(c.Paths.StateFile),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IdleTimeout returns how long the server may sit unused before being reaped.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Lifecycle.IdleTimeoutSeconds) * time.Second
}

// StartupPollInterval returns the delay between readiness probes after spawn.
func (c *Config) StartupPollInterval() time.Duration {
	return time.Duration(c.Lifecycle.StartupPollIntervalMS) * time.Millisecond
}

// KillGrace returns the wait between graceful and forced termination.
func (c *Config) KillGrace() time.Duration {
	return time.Duration(c.Lifecycle.KillGraceMS) * time.Millisecond
}

// LockStale returns the age beyond which a lock marker is presumed abandoned.
func (c *Config) LockStale() time.Duration {
	return time.Duration(c.Lock.StaleSeconds) * time.Second
}

// LockRetryDelay returns the pause between lock acquisition attempts.
func (c *Config) LockRetryDelay() time.Duration {
	return time.Duration(c.Lock.RetryDelayMS) * time.Millisecond
}

// HealthTimeout returns the timeout for steady-state responsiveness checks.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.HTTP.HealthTimeoutMS) * time.Millisecond
}

// ProbeTimeout returns the short timeout used while polling during startup.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.HTTP.ProbeTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the timeout for format requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutSeconds) * time.Second
}

// HistoryDBPath returns the invocation history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// ServerLogPath returns the file the spawned server's output is appended to.
func (c *Config) ServerLogPath() string {
	return filepath.Join(c.Paths.LogDir, "server.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
