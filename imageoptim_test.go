package imageoptim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"imageoptim/internal/binres"
	"imageoptim/internal/testsupport"
)

// isolate points the default engine's configuration sources and binary
// search at test-owned directories.
func isolate(t *testing.T, binDir string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(binres.BinPathEnv, binDir)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	ResetDefault()
	t.Cleanup(ResetDefault)
}

func TestDefaultEngineOptimize(t *testing.T) {
	binDir := t.TempDir()
	for _, name := range []string{"pngquant", "pngcrush", "optipng", "oxipng", "advpng", "pngout"} {
		testsupport.StubBin(t, binDir, name, testsupport.VersionGuard+"exit 1\n")
	}
	testsupport.StubBin(t, binDir, "optipng", testsupport.ShrinkInPlaceScript(1))
	isolate(t, binDir)

	dir := t.TempDir()
	input := filepath.Join(dir, "image.png")
	testsupport.WritePNG(t, input, 16, 16)

	opt, err := Optimize(context.Background(), input)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if opt == nil {
		t.Fatal("expected a result from the default engine")
	}
	size, err := opt.Size()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size >= opt.OriginalSize {
		t.Fatalf("not smaller: %d >= %d", size, opt.OriginalSize)
	}
	_ = opt.Path.Remove()
}

func TestDefaultEngineUnknownInput(t *testing.T) {
	isolate(t, t.TempDir())

	dir := t.TempDir()
	input := filepath.Join(dir, "readme.md")
	if err := os.WriteFile(input, []byte("# not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opt, err := Optimize(context.Background(), input)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if opt != nil {
		t.Fatal("expected none")
	}
}

func TestOptimizeDataRoundTrip(t *testing.T) {
	binDir := t.TempDir()
	testsupport.StubBin(t, binDir, "optipng", testsupport.ShrinkInPlaceScript(1))
	isolate(t, binDir)

	fixture := filepath.Join(t.TempDir(), "fixture.png")
	testsupport.WritePNG(t, fixture, 12, 12)
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	out, err := OptimizeData(context.Background(), data)
	if err != nil {
		t.Fatalf("optimize data: %v", err)
	}
	if out == nil || len(out) >= len(data) {
		t.Fatal("expected reduced payload")
	}
}
