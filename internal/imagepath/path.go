// Package imagepath provides the filesystem primitives the optimization
// engine hands between workers: temp path allocation next to the target,
// attribute-preserving copies, and atomic in-directory replacement.
package imagepath

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"imageoptim/internal/imgformat"
)

// Path is an immutable reference to an absolute filesystem path. The
// underlying file may change; the detected format is probed lazily and
// cached on first use.
type Path struct {
	raw string

	formatOnce sync.Once
	format     imgformat.Format
	formatErr  error
}

// New returns a Path for the given location, made absolute against the
// current working directory.
func New(path string) (*Path, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("image path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return &Path{raw: abs}, nil
}

func (p *Path) String() string { return p.raw }

// Dir returns the containing directory.
func (p *Path) Dir() string { return filepath.Dir(p.raw) }

// Size reports the current byte size of the file.
func (p *Path) Size() (int64, error) {
	info, err := os.Stat(p.raw)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Format probes the file's image format by magic bytes. The result is
// cached for the lifetime of the Path.
func (p *Path) Format() (imgformat.Format, error) {
	p.formatOnce.Do(func() {
		p.format, p.formatErr = imgformat.DetectFile(p.raw)
	})
	return p.format, p.formatErr
}

// TempPath allocates a fresh, not-yet-existing sibling path carrying the
// same extension as p. The random component makes collisions under
// concurrent allocation vanishingly unlikely.
func (p *Path) TempPath() *Path {
	return p.TempPathIn(p.Dir())
}

// TempPathIn is TempPath with an explicit directory.
func (p *Path) TempPathIn(dir string) *Path {
	ext := filepath.Ext(p.raw)
	base := strings.TrimSuffix(filepath.Base(p.raw), ext)
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &Path{raw: filepath.Join(dir, base+"."+token+ext)}
}

// Copy writes p's bytes to dst, carrying over mode and mtime. The copy is
// not atomic.
func (p *Path) Copy(dst string) error {
	info, err := os.Stat(p.raw)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(p.raw)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	_ = os.Chmod(dst, info.Mode().Perm())
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// Replace atomically replaces target's contents with p's bytes while
// keeping target's directory entry, mode, and (where the OS allows)
// ownership. A staging file is materialized in target's directory from
// target itself so attributes are inherited, then overwritten with p's
// bytes and renamed over target. Rename is atomic within one filesystem;
// crossing filesystems fails cleanly without leaving partial state.
func (p *Path) Replace(target *Path) error {
	staging := target.TempPath()
	if err := target.Copy(staging.raw); err != nil {
		return fmt.Errorf("stage replacement: %w", err)
	}

	if err := overwrite(p.raw, staging.raw); err != nil {
		_ = os.Remove(staging.raw)
		return fmt.Errorf("write replacement: %w", err)
	}
	preserveOwner(target.raw, staging.raw)

	if err := os.Rename(staging.raw, target.raw); err != nil {
		_ = os.Remove(staging.raw)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Remove unlinks the file. Missing files are not an error.
func (p *Path) Remove() error {
	err := os.Remove(p.raw)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func overwrite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
