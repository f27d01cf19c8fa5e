package metascan

import (
	"os"
	"path/filepath"
	"testing"

	"imageoptim/internal/imgformat"
	"imageoptim/internal/testsupport"
)

func TestFileReportsPNGDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.png")
	testsupport.WritePNG(t, path, 20, 14)

	info, err := File(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if info.Format != imgformat.FormatPNG {
		t.Fatalf("expected png, got %v", info.Format)
	}
	if info.Width != 20 || info.Height != 14 {
		t.Fatalf("expected 20x14, got %dx%d", info.Width, info.Height)
	}
	if info.Size <= 0 {
		t.Fatal("size not recorded")
	}
	if info.ExifBytes != 0 {
		t.Fatal("png fixture must not report EXIF")
	}
}

func TestFileReportsJPEGWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.jpg")
	testsupport.WriteJPEG(t, path, 10, 10)

	info, err := File(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if info.Format != imgformat.FormatJPEG {
		t.Fatalf("expected jpeg, got %v", info.Format)
	}
	if info.ExifBytes != 0 || info.ExifTags != 0 {
		t.Fatalf("fixture has no EXIF, got %d bytes / %d tags", info.ExifBytes, info.ExifTags)
	}
}

func TestFileUnrecognizedInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := File(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if info.Format != imgformat.FormatUnknown {
		t.Fatalf("expected unknown, got %v", info.Format)
	}
}

func TestFileSVGHasNoRasterDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icon.svg")
	testsupport.WriteSVG(t, path)

	info, err := File(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if info.Format != imgformat.FormatSVG {
		t.Fatalf("expected svg, got %v", info.Format)
	}
	if info.Width != 0 || info.Height != 0 {
		t.Fatalf("svg must report no raster dimensions, got %dx%d", info.Width, info.Height)
	}
}
