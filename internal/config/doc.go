// Package config owns imageoptim's configuration surface: engine-wide
// settings, per-worker option maps, TOML file loading, and the composition
// of defaults, global file, local file, and inline overrides.
package config
