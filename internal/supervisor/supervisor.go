package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"fmtd/internal/config"
	"fmtd/internal/health"
	"fmtd/internal/logging"
)

// ErrStartupTimeout indicates the spawned server never became responsive
// within the configured polling budget.
var ErrStartupTimeout = errors.New("formatting server failed to become responsive")

// Supervisor spawns and terminates the external formatting server.
type Supervisor struct {
	cfg     *config.Config
	checker *health.Checker
	logger  *slog.Logger
}

// New constructs a Supervisor.
func New(cfg *config.Config, checker *health.Checker, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		checker: checker,
		logger:  logging.NewComponentLogger(logger, "supervisor"),
	}
}

// Start launches the formatting server as a detached child and waits for it
// to answer HTTP on the configured port. The parent does not own the child's
// lifetime: the process keeps running after this invocation exits.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	command := s.cfg.Server.Command
	if len(command) == 0 {
		return 0, errors.New("server command not configured")
	}

	args := append(append([]string{}, command[1:]...), "--port", strconv.Itoa(s.cfg.Server.Port))
	proc := exec.Command(command[0], args...)
	proc.Stdout = s.serverLog()
	proc.Stderr = proc.Stdout

	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch formatting server: %w", err)
	}
	pid := proc.Process.Pid
	if err := proc.Process.Release(); err != nil {
		return 0, fmt.Errorf("detach formatting server: %w", err)
	}
	s.logger.Info("formatting server launched", "pid", pid, "port", s.cfg.Server.Port)

	interval := s.cfg.StartupPollInterval()
	for attempt := 0; attempt < s.cfg.Lifecycle.StartupPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			s.Stop(context.Background(), pid)
			return 0, err
		}
		if s.checker.Responsive(ctx, s.cfg.Server.Port, s.cfg.ProbeTimeout()) {
			s.logger.Info("formatting server ready", "pid", pid, "attempts", attempt+1)
			return pid, nil
		}
		time.Sleep(interval)
	}

	// Don't leak a child that never came up.
	s.Stop(context.Background(), pid)
	budget := time.Duration(s.cfg.Lifecycle.StartupPollAttempts) * interval
	return 0, fmt.Errorf("%w within %s", ErrStartupTimeout, budget)
}

// Stop terminates the pid, gracefully first and forcefully after the kill
// grace period. Signal failures are swallowed; the process may already be gone.
func (s *Supervisor) Stop(ctx context.Context, pid int) {
	if pid <= 0 || pid == os.Getpid() {
		return
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return
	}

	deadline := time.Now().Add(s.cfg.KillGrace())
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		if !s.checker.Alive(pid) {
			s.logger.Info("formatting server stopped", "pid", pid)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	if s.checker.Alive(pid) {
		s.logger.Warn("formatting server ignored SIGTERM, killing", "pid", pid)
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

func (s *Supervisor) serverLog() *os.File {
	path := s.cfg.ServerLogPath()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		s.logger.Debug("server log unavailable, discarding output", "path", path, "error", err)
		return nil
	}
	return file
}
