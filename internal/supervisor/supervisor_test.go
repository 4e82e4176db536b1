package supervisor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"testing"
	"time"

	"fmtd/internal/config"
	"fmtd/internal/health"
)

const helperServerEnv = "FMTD_TEST_HELPER_SERVER"

// TestMain doubles as the spawned formatting server when re-executed with
// the helper env var set (the usual helper-process pattern).
func TestMain(m *testing.M) {
	if os.Getenv(helperServerEnv) == "1" {
		helperServerMain()
		return
	}
	os.Exit(m.Run())
}

func helperServerMain() {
	port := 0
	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			port, _ = strconv.Atoi(os.Args[i+1])
		}
	}
	if port == 0 {
		os.Exit(2)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	_ = http.ListenAndServe("127.0.0.1:"+strconv.Itoa(port), mux)
	os.Exit(0)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func testConfig(t *testing.T, command []string, port int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Server.Command = command
	cfg.Server.Port = port
	cfg.Lifecycle.StartupPollIntervalMS = 50
	cfg.Lifecycle.StartupPollAttempts = 40
	cfg.Lifecycle.KillGraceMS = 500
	cfg.HTTP.ProbeTimeoutMS = 50
	return &cfg
}

func TestStartSpawnsResponsiveServer(t *testing.T) {
	t.Setenv(helperServerEnv, "1")
	port := freePort(t)
	cfg := testConfig(t, []string{os.Args[0]}, port)
	checker := health.NewChecker(nil)
	sup := New(cfg, checker, nil)

	pid, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("Start returned pid %d", pid)
	}
	if !checker.Responsive(context.Background(), port, 2*time.Second) {
		t.Error("server not responsive after Start")
	}

	sup.Stop(context.Background(), pid)
	if checker.Responsive(context.Background(), port, 200*time.Millisecond) {
		t.Error("server still responsive after Stop")
	}
}

func TestStartTimesOutOnUnresponsiveCommand(t *testing.T) {
	port := freePort(t)
	// "true" exits immediately and never listens.
	cfg := testConfig(t, []string{"true"}, port)
	cfg.Lifecycle.StartupPollIntervalMS = 10
	cfg.Lifecycle.StartupPollAttempts = 5

	sup := New(cfg, health.NewChecker(nil), nil)
	_, err := sup.Start(context.Background())
	if !errors.Is(err, ErrStartupTimeout) {
		t.Fatalf("expected ErrStartupTimeout, got %v", err)
	}
}

func TestStartFailsForMissingExecutable(t *testing.T) {
	cfg := testConfig(t, []string{"fmtd-no-such-binary"}, freePort(t))
	sup := New(cfg, health.NewChecker(nil), nil)
	if _, err := sup.Start(context.Background()); err == nil {
		t.Fatal("expected launch error for missing executable")
	}
}

func TestStopTerminatesChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}

	cfg := testConfig(t, []string{"sleep"}, freePort(t))
	sup := New(cfg, health.NewChecker(nil), nil)
	sup.Stop(context.Background(), cmd.Process.Pid)

	err := cmd.Wait()
	if err == nil {
		t.Fatal("child exited cleanly, expected signal")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := exitErr.Sys().(syscall.WaitStatus)
		if !status.Signaled() {
			t.Errorf("child not signaled: %v", err)
		}
	}
}

func TestStopIgnoresInvalidPid(t *testing.T) {
	cfg := testConfig(t, []string{"sleep"}, freePort(t))
	sup := New(cfg, health.NewChecker(nil), nil)
	// Must not panic or signal anything.
	sup.Stop(context.Background(), 0)
	sup.Stop(context.Background(), -5)
	sup.Stop(context.Background(), os.Getpid())
}
