package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fmtd/internal/logging"
)

// Descriptor identifies the formatting server fmtd believes is active.
//
// It is a belief, not a guarantee: the OS may have reused the pid since the
// descriptor was written, so callers must re-verify liveness and
// responsiveness before trusting it.
type Descriptor struct {
	PID        int    `json:"pid"`
	Port       int    `json:"port"`
	LastAccess int64  `json:"lastAccess"` // epoch milliseconds
	InstanceID string `json:"instanceId,omitempty"`
}

// LastAccessTime returns LastAccess as a time.Time.
func (d *Descriptor) LastAccessTime() time.Time {
	return time.UnixMilli(d.LastAccess)
}

// Touch sets LastAccess to now.
func (d *Descriptor) Touch() {
	d.LastAccess = time.Now().UnixMilli()
}

// Store persists the singleton server descriptor as JSON at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the given file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "state"),
	}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted descriptor, or nil when the file is missing or
// unparsable. Read and parse faults are treated as "no known server".
func (s *Store) Load() (*Descriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("state file unreadable, treating as absent", "path", s.path, "error", err)
		}
		return nil, nil
	}

	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		s.logger.Debug("state file unparsable, treating as absent", "path", s.path, "error", err)
		return nil, nil
	}
	if desc.PID <= 0 || desc.Port <= 0 {
		return nil, nil
	}
	return &desc, nil
}

// Save overwrites the state file with the serialized descriptor. Concurrent
// saves may interleave; readers re-verify the descriptor anyway.
func (s *Store) Save(desc *Descriptor) error {
	if desc == nil {
		return errors.New("descriptor is nil")
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Clear removes the state file, ignoring absence.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
