package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"fmtd/internal/logging"
)

// Lock serializes concurrent fmtd invocations around the server lifecycle
// critical section.
//
// Exclusion is enforced with an OS advisory lock on the marker file, so a
// crashed holder releases it automatically. The marker's modification time
// additionally carries the staleness heuristic: a marker younger than the
// staleness threshold blocks acquisition outright, an older one is presumed
// abandoned and removed.
type Lock struct {
	path   string
	stale  time.Duration
	logger *slog.Logger
	fl     *flock.Flock
}

// New creates a lock for the given marker path.
func New(path string, stale time.Duration, logger *slog.Logger) *Lock {
	return &Lock{
		path:   path,
		stale:  stale,
		logger: logging.NewComponentLogger(logger, "lockfile"),
	}
}

// Path returns the marker file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire attempts to take the lock without blocking. It reports false when
// another invocation holds it or a fresh marker is present.
func (l *Lock) Acquire() (bool, error) {
	if info, err := os.Stat(l.path); err == nil {
		age := time.Since(info.ModTime())
		if age < l.stale {
			return false, nil
		}
		l.logger.Debug("removing stale lock marker", "path", l.path, "age", age)
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("remove stale lock marker: %w", err)
		}
	}

	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create lock directory: %w", err)
		}
	}

	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	l.fl = fl

	// Record the holder pid and refresh the marker mtime so other
	// invocations see a live lock.
	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		l.logger.Debug("failed to record lock holder pid", "path", l.path, "error", err)
	}
	return true, nil
}

// Release drops the lock and deletes the marker, ignoring absence. Safe to
// call when the lock was never acquired.
func (l *Lock) Release() {
	if l.fl != nil {
		if err := l.fl.Unlock(); err != nil {
			l.logger.Debug("failed to release lock", "path", l.path, "error", err)
		}
		l.fl = nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("failed to remove lock marker", "path", l.path, "error", err)
	}
}

// HolderPID reads the pid recorded in the marker file, or 0 when unavailable.
// Informational only; readers must not trust it for liveness decisions.
func (l *Lock) HolderPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return 0
	}
	return pid
}

func trimNewline(data []byte) []byte {
	for len(data) > 0 {
		last := data[len(data)-1]
		if last != '\n' && last != '\r' && last != ' ' {
			break
		}
		data = data[:len(data)-1]
	}
	return data
}
