package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sys/unix"

	"fmtd/internal/logging"
)

// Checker verifies that a recorded server process is still worth trusting.
// Liveness (pid exists) and responsiveness (port answers HTTP) are separate
// signals and are always checked as a pair by callers: pids can be reused by
// the OS, so a live pid alone proves nothing.
type Checker struct {
	client *http.Client
	logger *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(logger *slog.Logger) *Checker {
	return &Checker{
		client: &http.Client{},
		logger: logging.NewComponentLogger(logger, "health"),
	}
}

// Alive reports whether the pid refers to an existing, addressable process.
func (c *Checker) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, unix.EPERM)
}

// Responsive reports whether something is answering HTTP on localhost:port.
// Any response at all, including a 404, counts: the goal is only to detect a
// listener, not a particular route.
func (c *Checker) Responsive(ctx context.Context, port int, timeout time.Duration) bool {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://localhost:%d/", port)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("responsiveness probe failed", "port", port, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return true
}
