// Package state persists the descriptor of the formatting server fmtd
// currently supervises: its pid, port, and last-access timestamp.
//
// At most one descriptor exists at a time. Missing or corrupt state files are
// never surfaced as errors; both load as "no known server" and let the
// orchestrator fall into its restart branch.
package state
