// Package serverctl decides whether the formatting server is started,
// reused, restarted, or reaped, and proxies format requests to it.
//
// The decision procedure runs inside a best-effort critical section: lock
// acquisition is retried a bounded number of times and the invocation
// proceeds unprotected when the lock stays busy. The persisted descriptor is
// never trusted without re-verifying both pid liveness and port
// responsiveness, because the OS can recycle pids.
package serverctl
