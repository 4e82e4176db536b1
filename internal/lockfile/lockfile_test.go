package lockfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmtd.lock")
	lock := New(path, 10*time.Second, nil)

	ok, err := lock.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire free lock")
	}
	if pid := lock.HolderPID(); pid != os.Getpid() {
		t.Errorf("HolderPID = %d, want %d", pid, os.Getpid())
	}

	lock.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("marker should be removed after Release")
	}
}

func TestYoungMarkerBlocksAcquisition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmtd.lock")
	if err := os.WriteFile(path, []byte("99999\n"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	lock := New(path, 10*time.Second, nil)
	ok, err := lock.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if ok {
		t.Fatal("fresh marker should block acquisition")
	}
}

func TestStaleMarkerIsRecovered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmtd.lock")
	if err := os.WriteFile(path, []byte("99999\n"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("age marker: %v", err)
	}

	lock := New(path, 10*time.Second, nil)
	ok, err := lock.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("stale marker should not block acquisition")
	}
	lock.Release()
}

func TestHeldLockBlocksSecondAcquirer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmtd.lock")
	first := New(path, 10*time.Second, nil)
	ok, err := first.Acquire()
	if err != nil || !ok {
		t.Fatalf("first Acquire = (%v, %v)", ok, err)
	}
	defer first.Release()

	second := New(path, 10*time.Second, nil)
	ok, err = second.Acquire()
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if ok {
		t.Fatal("held lock should block a second acquirer")
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock := New(filepath.Join(t.TempDir(), "fmtd.lock"), 10*time.Second, nil)
	// Must not panic or error on an unheld lock.
	lock.Release()
}
