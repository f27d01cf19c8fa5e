package config

import (
	"runtime"
)

// Config carries every engine-wide knob plus the per-worker option maps.
type Config struct {
	// Threads bounds how many images are optimized concurrently.
	Threads int
	// Timeout is the default per-worker run limit in seconds; 0 disables
	// it. A worker's own timeout option overrides it.
	Timeout float64
	// SkipMissingWorkers demotes a missing binary for an explicitly
	// enabled worker from a fatal error to a logged skip.
	SkipMissingWorkers bool
	// AllowLossy unlocks the workers and options that trade pixel
	// identity for size (pngquant, jpegoptim max_quality).
	AllowLossy bool
	// CacheDir enables the result cache when non-empty.
	CacheDir string
	// BinDir is searched for optimizer binaries before PATH.
	BinDir string

	LogLevel  string
	LogFormat string

	// Workers maps worker name to its enablement and options. Workers
	// absent from the map run with defaults.
	Workers map[string]Worker
}

// Worker is the per-worker slice of the configuration. A nil Enabled means
// enabled.
type Worker struct {
	Enabled *bool
	Options map[string]any
}

// On reports whether the worker is enabled.
func (w Worker) On() bool { return w.Enabled == nil || *w.Enabled }

// Explicit reports whether the user explicitly enabled the worker, which
// upgrades a missing binary to a fatal error.
func (w Worker) Explicit() bool { return w.Enabled != nil && *w.Enabled }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Threads:   runtime.NumCPU(),
		LogLevel:  "info",
		LogFormat: "console",
		Workers:   map[string]Worker{},
	}
}

// WorkerOptions returns the raw option map configured for name, never nil.
func (c *Config) WorkerOptions(name string) map[string]any {
	if w, ok := c.Workers[name]; ok && w.Options != nil {
		return w.Options
	}
	return map[string]any{}
}
