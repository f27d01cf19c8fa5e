// Package testsupport generates image fixtures and stub optimizer
// binaries so the test suite runs without the real external tools.
package testsupport

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/disintegration/imaging"
)

// gradient builds a deterministic truecolor test image.
func gradient(width, height int) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{R: 16, G: 16, B: 16, A: 255})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// WritePNG writes a deliberately suboptimal (uncompressed) PNG so stub and
// real optimizers alike have room to shrink it.
func WritePNG(t testing.TB, path string, width, height int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(f, gradient(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

// WriteJPEG writes a baseline-quality JPEG fixture.
func WriteJPEG(t testing.TB, path string, width, height int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := imaging.Encode(f, gradient(width, height), imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
}

// WriteGIF writes a small paletted GIF fixture.
func WriteGIF(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewPaletted(image.Rect(0, 0, width, height), []color.Color{
		color.Black, color.White,
		color.NRGBA{R: 255, A: 255}, color.NRGBA{G: 255, A: 255},
	})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%4))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := gif.Encode(f, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
}

// WriteSVG writes a verbose SVG fixture with minifiable whitespace and
// comments.
func WriteSVG(t testing.TB, path string) {
	t.Helper()

	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<!-- test fixture -->
<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
    <rect x="10"  y="10"  width="80" height="80" fill="#336699" />
</svg>
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StubBin installs an executable shell script named name under dir.
func StubBin(t testing.TB, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}

// VersionGuard answers the resolver's version probe. Every stub script
// needs it first, or the resolver rejects the binary before any worker
// runs. The version is high enough to clear every declared minimum.
const VersionGuard = `if [ "$1" = "--version" ] || [ "$1" = "-version" ] || [ "$1" = "-V" ]; then echo "stub 99.9.9"; exit 0; fi
`

// ShrinkInPlaceScript returns a stub body for in-place optimizers: it
// rewrites its last argument one byte shorter, down to a floor so a second
// pass over already-shrunk input reports no improvement.
func ShrinkInPlaceScript(floor int) string {
	return VersionGuard + `for a in "$@"; do f="$a"; done
size=$(wc -c < "$f")
floor=` + strconv.Itoa(floor) + `
if [ "$size" -le "$floor" ]; then exit 1; fi
head -c $((size - 1)) "$f" > "$f.stub" && mv "$f.stub" "$f"
`
}
