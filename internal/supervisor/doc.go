// Package supervisor spawns the external formatting server as a detached
// child, waits for it to answer HTTP, and terminates it with graceful-then-
// forced escalation.
//
// The parent never owns the child's lifetime; ownership is only the pid
// recorded in the state file, which callers re-verify before trusting.
package supervisor
