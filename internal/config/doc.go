// Package config loads, validates, and defaults fmtd's TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/fmtd/config.toml, then ./fmtd.toml; a missing file yields the
// documented defaults. All path fields are tilde-expanded and absolute after
// Load returns, and timing fields are exposed as time.Duration accessors so
// callers never convert units themselves.
package config
