package binres

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestResolveFromDir(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "jpegoptim", `echo "jpegoptim v1.5.5"`)

	r := NewResolver(dir)
	bin, err := r.Resolve("jpegoptim")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if bin.Path != filepath.Join(dir, "jpegoptim") {
		t.Fatalf("unexpected path %s", bin.Path)
	}
	if bin.Detection != "dir" {
		t.Fatalf("expected dir detection, got %s", bin.Detection)
	}
	if bin.Version.String() != "1.5.5" {
		t.Fatalf("expected version 1.5.5, got %s", bin.Version)
	}
}

func TestResolveFromEnv(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "optipng", `echo "OptiPNG version 0.7.7"`)
	t.Setenv(BinPathEnv, dir)

	r := NewResolver()
	bin, err := r.Resolve("optipng")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if bin.Detection != "env" {
		t.Fatalf("expected env detection, got %s", bin.Detection)
	}
	if bin.Version.String() != "0.7.7" {
		t.Fatalf("unexpected version %s", bin.Version)
	}
}

func TestResolveNotFound(t *testing.T) {
	t.Setenv(BinPathEnv, "")
	r := NewResolver()
	_, err := r.Resolve("definitely-not-an-optimizer")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestResolveMemoizesUntilReset(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "advpng", `echo "advancecomp v2.1"`)

	r := NewResolver(dir)
	if _, err := r.Resolve("advpng"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Remove the binary; the cached result must survive until Reset.
	if err := os.Remove(stub); err != nil {
		t.Fatalf("remove stub: %v", err)
	}
	if _, err := r.Resolve("advpng"); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}

	r.Reset()
	t.Setenv(BinPathEnv, "")
	t.Setenv("PATH", t.TempDir())
	if _, err := r.Resolve("advpng"); err == nil {
		t.Fatal("expected failure after reset with binary gone")
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		output string
		want   string
		ok     bool
	}{
		{"jpegoptim v1.5.5 (Dec 2023)", "1.5.5", true},
		{"OptiPNG version 0.7.7", "0.7.7", true},
		{"gifsicle (LCDF Gifsicle) 1.94", "1.94", true},
		{"pngquant, 2.17.0, by Kornel", "2.17.0", true},
		{"built on 2023", "", false},
		{"no digits here", "", false},
	}
	for _, tc := range cases {
		v, ok := ParseVersion(tc.output)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v", tc.output, tc.ok)
		}
		if ok && v.String() != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.output, tc.want, v)
		}
	}
}

func TestVersionCompareAndRanges(t *testing.T) {
	if MustVersion("1.7").Compare(MustVersion("1.7.0")) != 0 {
		t.Fatal("1.7 must equal 1.7.0")
	}
	if MustVersion("1.7.59").Compare(MustVersion("1.7.60")) != -1 {
		t.Fatal("ordering broken")
	}

	broken := Range{Low: MustVersion("1.7.60"), High: MustVersion("1.7.66")}
	if !broken.Contains(MustVersion("1.7.60")) {
		t.Fatal("range lower bound must be inclusive")
	}
	if broken.Contains(MustVersion("1.7.66")) {
		t.Fatal("range upper bound must be exclusive")
	}
}

func TestConstraintCheck(t *testing.T) {
	c := Constraint{
		Min:    MustVersion("1.17"),
		Broken: []Range{{Low: MustVersion("1.20"), High: MustVersion("1.21")}},
	}

	var bad *BadVersionError
	if err := c.Check(&Bin{Name: "advpng", Version: MustVersion("1.16")}); !errors.As(err, &bad) {
		t.Fatalf("expected BadVersionError below minimum, got %v", err)
	}
	if err := c.Check(&Bin{Name: "advpng", Version: MustVersion("1.20.1")}); !errors.As(err, &bad) {
		t.Fatalf("expected BadVersionError inside broken range, got %v", err)
	}
	if err := c.Check(&Bin{Name: "advpng", Version: MustVersion("1.23")}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := (Constraint{}).Check(&Bin{Name: "svgo", Version: Version{}}); err != nil {
		t.Fatalf("zero constraint must accept everything, got %v", err)
	}
}
