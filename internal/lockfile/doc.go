// Package lockfile provides best-effort mutual exclusion between concurrent
// fmtd invocations using a marker file guarded by an OS advisory lock.
//
// Acquisition is non-blocking; callers retry a bounded number of times and
// may proceed unprotected when the lock stays busy. The marker's mtime
// carries a staleness heuristic so an abandoned marker never wedges the CLI.
package lockfile
