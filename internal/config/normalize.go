package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeLifecycle()
	c.normalizeLock()
	c.normalizeHTTP()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(c.Paths.StateFile); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = defaultLockFile
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	command := make([]string, 0, len(c.Server.Command))
	for _, arg := range c.Server.Command {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	if len(command) == 0 {
		command = []string{defaultServerExecutable}
	}
	c.Server.Command = command
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
}

func (c *Config) normalizeLifecycle() {
	if c.Lifecycle.IdleTimeoutSeconds <= 0 {
		c.Lifecycle.IdleTimeoutSeconds = defaultIdleTimeoutSeconds
	}
	if c.Lifecycle.StartupPollIntervalMS <= 0 {
		c.Lifecycle.StartupPollIntervalMS = defaultStartupPollIntervalMS
	}
	if c.Lifecycle.StartupPollAttempts <= 0 {
		c.Lifecycle.StartupPollAttempts = defaultStartupPollAttempts
	}
	if c.Lifecycle.KillGraceMS <= 0 {
		c.Lifecycle.KillGraceMS = defaultKillGraceMS
	}
}

func (c *Config) normalizeLock() {
	if c.Lock.StaleSeconds <= 0 {
		c.Lock.StaleSeconds = defaultLockStaleSeconds
	}
	if c.Lock.RetryAttempts <= 0 {
		c.Lock.RetryAttempts = defaultLockRetryAttempts
	}
	if c.Lock.RetryDelayMS <= 0 {
		c.Lock.RetryDelayMS = defaultLockRetryDelayMS
	}
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.HealthTimeoutMS <= 0 {
		c.HTTP.HealthTimeoutMS = defaultHealthTimeoutMS
	}
	if c.HTTP.ProbeTimeoutMS <= 0 {
		c.HTTP.ProbeTimeoutMS = defaultProbeTimeoutMS
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		c.HTTP.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeHistory() {
	if c.History.Keep <= 0 {
		c.History.Keep = defaultHistoryKeep
	}
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
