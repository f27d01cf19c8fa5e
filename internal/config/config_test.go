package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseWorkerBoolAndTable(t *testing.T) {
	cfg, err := Parse([]byte(`
threads = 4
allow_lossy = true

[workers]
pngout = false

[workers.optipng]
level = 2
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Threads != 4 || !cfg.AllowLossy {
		t.Fatalf("scalars not applied: %#v", cfg)
	}
	if cfg.Workers["pngout"].On() {
		t.Fatal("pngout must be disabled")
	}
	optipng := cfg.Workers["optipng"]
	if !optipng.On() || !optipng.Explicit() {
		t.Fatal("a worker table means explicitly enabled")
	}
	if optipng.Options["level"] != int64(2) {
		t.Fatalf("option not carried: %#v", optipng.Options)
	}
}

func TestParseRejectsBadWorkerValue(t *testing.T) {
	_, err := Parse([]byte(`
[workers]
optipng = "yes"
`))
	if !IsError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadComposesGlobalLocalInline(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	globalDir := filepath.Join(home, "imageoptim")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(globalDir, "config.toml"), []byte(`
threads = 2
cache_dir = "/tmp/global-cache"

[workers.optipng]
level = 1
strip = false
`), 0o644); err != nil {
		t.Fatalf("write global: %v", err)
	}

	workDir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, LocalFileName), []byte(`
threads = 8

[workers.optipng]
level = 3
`), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	inline := filepath.Join(workDir, "override.toml")
	if err := os.WriteFile(inline, []byte(`
[workers]
optipng = false
`), 0o644); err != nil {
		t.Fatalf("write inline: %v", err)
	}

	cfg, err := Load(inline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Threads != 8 {
		t.Fatalf("local must override global: %d", cfg.Threads)
	}
	if cfg.CacheDir != "/tmp/global-cache" {
		t.Fatalf("global-only value lost: %q", cfg.CacheDir)
	}

	optipng := cfg.Workers["optipng"]
	if optipng.On() {
		t.Fatal("inline disable must win")
	}
	// Options accumulated across files survive the enable flip.
	if optipng.Options["level"] != int64(3) {
		t.Fatalf("local option must override global: %#v", optipng.Options)
	}
	if optipng.Options["strip"] != false {
		t.Fatalf("global-only option lost: %#v", optipng.Options)
	}
}

func TestLoadMissingFilesAreSkipped(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	workDir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with no files: %v", err)
	}
	if cfg.Threads < 1 {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
}

func TestMergeMapsDeep(t *testing.T) {
	base := map[string]any{"a": 1, "nested": map[string]any{"x": 1, "y": 2}}
	overlay := map[string]any{"nested": map[string]any{"y": 3}, "b": 2}
	merged := mergeMaps(base, overlay)

	nested := merged["nested"].(map[string]any)
	if nested["x"] != 1 || nested["y"] != 3 {
		t.Fatalf("deep merge wrong: %#v", merged)
	}
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Fatalf("top-level merge wrong: %#v", merged)
	}
}

func TestWorkerOptionsNeverNil(t *testing.T) {
	cfg := Default()
	if cfg.WorkerOptions("optipng") == nil {
		t.Fatal("expected empty map for unconfigured worker")
	}
}
