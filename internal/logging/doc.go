// Package logging assembles the structured slog loggers used across
// imageoptim.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attr helpers so engine and CLI code emit data with the same shape.
// Prefer these constructors over hand-rolled slog setup.
package logging
