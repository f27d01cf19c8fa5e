package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imageoptim/internal/imgformat"
)

// imageExtensions gates directory walks; single files given explicitly
// are always taken (the probe decides, not the extension).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".svg":  true,
	".webp": true,
}

// gatherInputs expands the argument list: files pass through, directories
// are walked (recursively when asked) for files with image extensions.
func gatherInputs(args []string, recursive bool) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if path != arg && !recursive {
					return fs.SkipDir
				}
				return nil
			}
			if imageExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		inputs = append(inputs, found...)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no image files to process")
	}
	return inputs, nil
}

func formatLabel(f imgformat.Format) string {
	if f == imgformat.FormatUnknown {
		return "-"
	}
	return f.String()
}
