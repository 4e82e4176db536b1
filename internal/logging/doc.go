// Package logging assembles the structured slog loggers used across fmtd.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and provides a no-op logger plus component tagging so every
// subsystem emits lines with the same shape. Prefer these constructors over
// hand-rolled slog setup.
package logging
