package imgformat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectBytesKnownSignatures(t *testing.T) {
	pngHeader := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	gifHeader := append([]byte("GIF89a"), make([]byte, 16)...)
	webpHeader := []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")

	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, FormatJPEG},
		{"png", pngHeader, FormatPNG},
		{"gif87a", append([]byte("GIF87a"), make([]byte, 16)...), FormatGIF},
		{"gif89a", gifHeader, FormatGIF},
		{"webp", webpHeader, FormatWebP},
		{"svg plain", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), FormatSVG},
		{"svg with prolog", []byte("\xef\xbb\xbf<?xml version=\"1.0\"?>\n<!-- c -->\n<!DOCTYPE svg>\n  <svg/>"), FormatSVG},
		{"empty", nil, FormatUnknown},
		{"text", []byte("package imgformat\n"), FormatUnknown},
		{"riff wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectBytes(tc.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDetectBytesTruncated(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"jpeg soi only", []byte{0xff, 0xd8}, FormatJPEG},
		{"png magic only", []byte("\x89PNG\r\n\x1a\n"), FormatPNG},
		{"png partial magic", []byte("\x89PN"), FormatPNG},
		{"gif magic only", []byte("GIF8"), FormatGIF},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectBytes(tc.data)
			if got != FormatUnknown {
				t.Fatalf("expected FormatUnknown, got %v", got)
			}
			var truncated *TruncatedError
			if !errors.As(err, &truncated) {
				t.Fatalf("expected TruncatedError, got %v", err)
			}
			if truncated.Format != tc.want {
				t.Fatalf("expected hint %v, got %v", tc.want, truncated.Format)
			}
		})
	}
}

func TestDetectBytesNoWarningForRandomBytes(t *testing.T) {
	got, err := DetectBytes([]byte{0x00, 0x01, 0x02, 0x03, 0xde, 0xad})
	if got != FormatUnknown || err != nil {
		t.Fatalf("expected silent unknown, got %v / %v", got, err)
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "picture.dat")
	data := append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 64)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := DetectFile(path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if got != FormatJPEG {
		t.Fatalf("extension must not matter; expected jpeg, got %v", got)
	}

	if _, err := DetectFile(filepath.Join(dir, "absent.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, f := range All {
		if Parse(f.String()) != f {
			t.Fatalf("Parse(%q) did not round-trip", f)
		}
	}
	if Parse("bmp") != FormatUnknown {
		t.Fatal("unexpected format for bmp")
	}
}
