// Package imgformat classifies image payloads by magic bytes.
//
// Detection looks only at the leading bytes of the input; file extensions are
// ignored. A mismatch between extension and magic is allowed and the magic
// wins.
package imgformat

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Format identifies a supported image container.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatSVG
	FormatWebP
)

// All lists every recognized format.
var All = []Format{FormatJPEG, FormatPNG, FormatGIF, FormatSVG, FormatWebP}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatSVG:
		return "svg"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// Ext returns the canonical file extension for the format, dot included.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	case FormatSVG:
		return ".svg"
	case FormatWebP:
		return ".webp"
	default:
		return ""
	}
}

// Parse maps a format name to its Format. The empty string and unrecognized
// names map to FormatUnknown.
func Parse(name string) Format {
	for _, f := range All {
		if f.String() == name {
			return f
		}
	}
	return FormatUnknown
}

// TruncatedError reports input that carries a recognizable image signature
// but is too short or mangled to be that image. Callers treat it as a
// warning, not a failure: the input is skipped.
type TruncatedError struct {
	Format Format
	Size   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s signature on %d-byte input, header truncated", e.Format, e.Size)
}

// sniffLimit bounds how much of the input detection ever inspects.
const sniffLimit = 1024

var (
	jpegSig  = []byte{0xff, 0xd8, 0xff}
	pngSig   = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	gifSig   = []byte("GIF8")
	riffSig  = []byte("RIFF")
	webpTag  = []byte("WEBP")
	utf8BOM  = []byte{0xef, 0xbb, 0xbf}
	xmlOpen  = []byte("<?")
	svgOpen  = []byte("<svg")
	bangOpen = []byte("<!")
)

// Minimal sizes for a header that could plausibly decode: PNG needs the
// signature plus a complete IHDR chunk, GIF the logical screen descriptor.
const (
	pngMinSize = len("\x89PNG\r\n\x1a\n") + 4 + 4 + 13 + 4
	gifMinSize = 6 + 7
)

// DetectBytes classifies data. It never fails hard: unrecognized input
// yields (FormatUnknown, nil), while input that starts like an image but is
// truncated yields (FormatUnknown, *TruncatedError).
func DetectBytes(data []byte) (Format, error) {
	if len(data) > sniffLimit {
		data = data[:sniffLimit]
	}

	switch {
	case bytes.HasPrefix(data, jpegSig):
		return FormatJPEG, nil
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return FormatUnknown, &TruncatedError{Format: FormatJPEG, Size: len(data)}
	}

	if bytes.HasPrefix(data, pngSig) {
		if len(data) < pngMinSize {
			return FormatUnknown, &TruncatedError{Format: FormatPNG, Size: len(data)}
		}
		return FormatPNG, nil
	}
	if len(data) > 0 && data[0] == 0x89 && bytes.HasPrefix(pngSig, data) {
		return FormatUnknown, &TruncatedError{Format: FormatPNG, Size: len(data)}
	}

	if bytes.HasPrefix(data, gifSig) {
		if len(data) < gifMinSize || (data[4] != '7' && data[4] != '9') || data[5] != 'a' {
			return FormatUnknown, &TruncatedError{Format: FormatGIF, Size: len(data)}
		}
		return FormatGIF, nil
	}

	if bytes.HasPrefix(data, riffSig) {
		if len(data) >= 12 && bytes.Equal(data[8:12], webpTag) {
			return FormatWebP, nil
		}
		// RIFF containers cover plenty of non-image payloads.
		return FormatUnknown, nil
	}

	if detectSVG(data) {
		return FormatSVG, nil
	}

	return FormatUnknown, nil
}

// DetectFile classifies the file at path by reading its leading bytes.
// Missing or unreadable files report the underlying IO error.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	return DetectBytes(head[:n])
}

// detectSVG accepts a UTF-8 text prefix whose first element, after optional
// BOM, XML prolog, comments and doctype, is an <svg> root.
func detectSVG(data []byte) bool {
	data = bytes.TrimPrefix(data, utf8BOM)
	for {
		data = bytes.TrimLeft(data, " \t\r\n")
		switch {
		case bytes.HasPrefix(data, svgOpen):
			return true
		case bytes.HasPrefix(data, xmlOpen):
			end := bytes.Index(data, []byte("?>"))
			if end < 0 {
				return false
			}
			data = data[end+2:]
		case bytes.HasPrefix(data, bangOpen):
			end := bytes.IndexByte(data, '>')
			if end < 0 {
				return false
			}
			data = data[end+1:]
		default:
			return false
		}
	}
}
