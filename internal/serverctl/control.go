package serverctl

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fmtd/internal/config"
	"fmtd/internal/health"
	"fmtd/internal/history"
	"fmtd/internal/lockfile"
	"fmtd/internal/logging"
	"fmtd/internal/state"
	"fmtd/internal/supervisor"
)

// Launcher abstracts the process supervisor for the orchestrator.
type Launcher interface {
	Start(ctx context.Context) (int, error)
	Stop(ctx context.Context, pid int)
}

// Controller orchestrates the formatting server lifecycle: it decides whether
// to reuse, restart, or reap the recorded server, and proxies format requests
// to it.
type Controller struct {
	cfg      *config.Config
	store    *state.Store
	lock     *lockfile.Lock
	checker  *health.Checker
	launcher Launcher
	history  *history.Store
	client   *http.Client
	logger   *slog.Logger
}

// New wires a Controller from configuration. The history store may be nil;
// recording is then skipped entirely.
func New(cfg *config.Config, hist *history.Store, logger *slog.Logger) *Controller {
	checker := health.NewChecker(logger)
	return &Controller{
		cfg:      cfg,
		store:    state.NewStore(cfg.Paths.StateFile, logger),
		lock:     lockfile.New(cfg.Paths.LockFile, cfg.LockStale(), logger),
		checker:  checker,
		launcher: supervisor.New(cfg, checker, logger),
		history:  hist,
		client:   &http.Client{Timeout: cfg.RequestTimeout()},
		logger:   logging.NewComponentLogger(logger, "serverctl"),
	}
}

// Ensure returns a descriptor for a verified, responsive formatting server,
// starting or restarting one as needed. Only a startup timeout is fatal;
// every other fault collapses into the restart branch.
func (c *Controller) Ensure(ctx context.Context) (*state.Descriptor, error) {
	if c.acquireLock(ctx) {
		defer c.lock.Release()
	}
	return c.ensure(ctx)
}

func (c *Controller) ensure(ctx context.Context) (*state.Descriptor, error) {
	desc, _ := c.store.Load()

	// Idle reap runs unconditionally before any health verification: an
	// idle-expired server is stopped even if it would have checked healthy.
	if desc != nil {
		idle := time.Since(desc.LastAccessTime())
		if idle > c.cfg.IdleTimeout() {
			c.logger.Info("reaping idle server", "pid", desc.PID, "idle", idle.Truncate(time.Second))
			c.launcher.Stop(ctx, desc.PID)
			_ = c.store.Clear()
		}
	}

	desc, _ = c.store.Load()
	if desc != nil {
		if c.checker.Alive(desc.PID) && c.checker.Responsive(ctx, desc.Port, c.cfg.HealthTimeout()) {
			c.logger.Debug("reusing server", "pid", desc.PID, "port", desc.Port)
			return desc, nil
		}
		c.logger.Info("recorded server is unusable, restarting", "pid", desc.PID, "port", desc.Port)
		c.launcher.Stop(ctx, desc.PID)
	}

	pid, err := c.launcher.Start(ctx)
	if err != nil {
		return nil, err
	}

	fresh := &state.Descriptor{
		PID:        pid,
		Port:       c.cfg.Server.Port,
		InstanceID: uuid.NewString(),
	}
	fresh.Touch()
	if err := c.store.Save(fresh); err != nil {
		c.logger.Warn("failed to persist server descriptor", "error", err)
	}
	return fresh, nil
}

// Shutdown stops the recorded server and clears the persisted state. It
// returns the descriptor that was stopped, or nil when no server was known.
func (c *Controller) Shutdown(ctx context.Context) (*state.Descriptor, error) {
	if c.acquireLock(ctx) {
		defer c.lock.Release()
	}

	desc, _ := c.store.Load()
	if desc == nil {
		return nil, nil
	}
	c.launcher.Stop(ctx, desc.PID)
	if err := c.store.Clear(); err != nil {
		return desc, err
	}
	c.logger.Info("server shut down", "pid", desc.PID)
	return desc, nil
}

// acquireLock tries the bounded lock acquisition. A false return means the
// caller proceeds unprotected; that trade-off is logged, not hidden.
func (c *Controller) acquireLock(ctx context.Context) bool {
	delay := c.cfg.LockRetryDelay()
	for attempt := 0; attempt < c.cfg.Lock.RetryAttempts; attempt++ {
		ok, err := c.lock.Acquire()
		if err != nil {
			c.logger.Debug("lock acquisition fault", "error", err)
		}
		if ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
	c.logger.Warn("invocation lock busy, proceeding unprotected", "path", c.lock.Path())
	return false
}

// Snapshot describes the supervisor's current belief and its verification.
type Snapshot struct {
	Descriptor *state.Descriptor
	Alive      bool
	Responsive bool
	Idle       time.Duration
	StateFile  string
	LockFile   string
	History    *history.Summary
}

// Snapshot collects status for CLI output without mutating any state.
func (c *Controller) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{
		StateFile: c.cfg.Paths.StateFile,
		LockFile:  c.cfg.Paths.LockFile,
	}

	desc, _ := c.store.Load()
	if desc != nil {
		snap.Descriptor = desc
		snap.Alive = c.checker.Alive(desc.PID)
		snap.Responsive = c.checker.Responsive(ctx, desc.Port, c.cfg.HealthTimeout())
		snap.Idle = time.Since(desc.LastAccessTime())
	}

	if c.history != nil {
		if summary, err := c.history.Summarize(ctx); err == nil {
			snap.History = &summary
		}
	}
	return snap
}
