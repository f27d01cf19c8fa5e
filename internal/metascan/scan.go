// Package metascan reports advisory metadata about images: format,
// dimensions, and embedded EXIF weight. It powers the analyze command and
// never modifies its inputs.
package metascan

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/image/webp"

	"imageoptim/internal/imgformat"
)

// Info summarizes one image file.
type Info struct {
	Path   string
	Format imgformat.Format
	Size   int64
	// Width and Height are zero when the format carries no raster
	// dimensions (SVG) or the header could not be decoded.
	Width, Height int
	// ExifBytes is the size of the embedded EXIF blob, zero when absent.
	ExifBytes int
	// ExifTags counts the decoded IFD entries.
	ExifTags int
}

// File inspects the image at path. Unrecognized files report
// imgformat.FormatUnknown rather than an error; broken headers surface the
// probe's error.
func File(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	format, err := imgformat.DetectFile(path)
	if err != nil {
		var truncated *imgformat.TruncatedError
		if !errors.As(err, &truncated) {
			return nil, err
		}
	}

	info := &Info{Path: path, Format: format, Size: stat.Size()}
	if format == imgformat.FormatUnknown {
		return info, err
	}

	info.Width, info.Height = dimensions(path, format)
	if format == imgformat.FormatJPEG {
		info.ExifBytes, info.ExifTags = exifWeight(path)
	}
	return info, nil
}

func dimensions(path string, format imgformat.Format) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	switch format {
	case imgformat.FormatJPEG, imgformat.FormatPNG, imgformat.FormatGIF:
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return 0, 0
		}
		return cfg.Width, cfg.Height
	case imgformat.FormatWebP:
		cfg, err := webp.DecodeConfig(f)
		if err != nil {
			return 0, 0
		}
		return cfg.Width, cfg.Height
	default:
		return 0, 0
	}
}

func exifWeight(path string) (int, int) {
	raw, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		return 0, 0
	}
	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return len(raw), 0
	}
	return len(raw), len(entries)
}
