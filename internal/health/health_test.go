package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"
)

func testServerPort(t *testing.T, handler http.Handler) int {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return port
}

func TestAliveSelf(t *testing.T) {
	checker := NewChecker(nil)
	if !checker.Alive(os.Getpid()) {
		t.Error("current process should be alive")
	}
}

func TestAliveInvalidPid(t *testing.T) {
	checker := NewChecker(nil)
	if checker.Alive(0) {
		t.Error("pid 0 should not be alive")
	}
	if checker.Alive(-1) {
		t.Error("negative pid should not be alive")
	}
}

func TestAliveExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run child: %v", err)
	}
	// The child has been reaped; its pid no longer addresses a process.
	if NewChecker(nil).Alive(cmd.Process.Pid) {
		t.Error("exited process reported alive")
	}
}

func TestResponsiveOK(t *testing.T) {
	port := testServerPort(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	checker := NewChecker(nil)
	if !checker.Responsive(context.Background(), port, 2*time.Second) {
		t.Error("listening server should be responsive")
	}
}

func TestResponsiveAccepts404(t *testing.T) {
	port := testServerPort(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	checker := NewChecker(nil)
	if !checker.Responsive(context.Background(), port, 2*time.Second) {
		t.Error("404 response should still count as responsive")
	}
}

func TestResponsiveClosedPort(t *testing.T) {
	// Grab a port and close it so nothing is listening there.
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	srv.Close()

	checker := NewChecker(nil)
	if checker.Responsive(context.Background(), port, 200*time.Millisecond) {
		t.Error("closed port should not be responsive")
	}
}
