package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LocalFileName is the per-project configuration file looked up in the
// working directory.
const LocalFileName = ".imageoptim.toml"

// GlobalFilePath returns the user-level configuration file location under
// XDG_CONFIG_HOME (or ~/.config).
func GlobalFilePath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "imageoptim", "config.toml")
}

// fileConfig mirrors Config with optional scalars so merged files only
// override what they mention. Worker values are bool-or-table.
type fileConfig struct {
	Threads            *int           `toml:"threads"`
	Timeout            *float64       `toml:"timeout"`
	SkipMissingWorkers *bool          `toml:"skip_missing_workers"`
	AllowLossy         *bool          `toml:"allow_lossy"`
	CacheDir           *string        `toml:"cache_dir"`
	BinDir             *string        `toml:"bin_dir"`
	LogLevel           *string        `toml:"log_level"`
	LogFormat          *string        `toml:"log_format"`
	Workers            map[string]any `toml:"workers"`
}

// Load composes the configuration from defaults, the global file, the
// local file, and the given inline file paths, later sources winning.
// Missing files are skipped silently; malformed files are configuration
// errors.
func Load(inlinePaths ...string) (*Config, error) {
	paths := []string{GlobalFilePath(), LocalFileName}
	paths = append(paths, inlinePaths...)

	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		file, err := readFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if err := file.applyTo(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &cfg, nil
}

// Parse applies a single TOML document on top of the defaults. Used by
// tests and by callers composing configuration by hand.
func Parse(data []byte) (*Config, error) {
	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, Errorf("parse config: %v", err)
	}
	cfg := Default()
	if err := file.applyTo(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, Errorf("parse config %s: %v", path, err)
	}
	return &file, nil
}

func (f *fileConfig) applyTo(cfg *Config) error {
	if f.Threads != nil {
		cfg.Threads = *f.Threads
	}
	if f.Timeout != nil {
		cfg.Timeout = *f.Timeout
	}
	if f.SkipMissingWorkers != nil {
		cfg.SkipMissingWorkers = *f.SkipMissingWorkers
	}
	if f.AllowLossy != nil {
		cfg.AllowLossy = *f.AllowLossy
	}
	if f.CacheDir != nil {
		cfg.CacheDir = *f.CacheDir
	}
	if f.BinDir != nil {
		cfg.BinDir = *f.BinDir
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		cfg.LogFormat = *f.LogFormat
	}
	if cfg.Workers == nil {
		cfg.Workers = map[string]Worker{}
	}
	for name, raw := range f.Workers {
		merged, err := mergeWorker(cfg.Workers[name], name, raw)
		if err != nil {
			return err
		}
		cfg.Workers[name] = merged
	}
	return nil
}

// mergeWorker folds one file's worker-scope value into the accumulated
// worker config. A boolean toggles enablement and keeps accumulated
// options; a table enables the worker and deep-merges its options.
func mergeWorker(base Worker, name string, raw any) (Worker, error) {
	switch value := raw.(type) {
	case bool:
		enabled := value
		base.Enabled = &enabled
		return base, nil
	case map[string]any:
		enabled := true
		base.Enabled = &enabled
		base.Options = mergeMaps(base.Options, value)
		return base, nil
	default:
		return base, Errorf("worker %s: expected boolean or table, got %T", name, raw)
	}
}

func mergeMaps(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		if sub, ok := v.(map[string]any); ok {
			if prev, ok := merged[k].(map[string]any); ok {
				merged[k] = mergeMaps(prev, sub)
				continue
			}
		}
		merged[k] = v
	}
	return merged
}
