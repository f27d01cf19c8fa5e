package worker

import (
	"context"
	"strconv"

	"imageoptim/internal/imgformat"
)

var jpegOnly = []imgformat.Format{imgformat.FormatJPEG}

// jhead normalizes EXIF orientation and drops the thumbnail before the
// heavier jpeg workers run. It rewrites its operand in place and rarely
// shrinks the file on its own, so equal-size results still count.
type jhead struct {
	base
}

func newJhead(env *Env, raw map[string]any) (Worker, error) {
	opts, err := Schema(nil).Resolve("jhead", raw)
	if err != nil {
		return nil, err
	}
	return &jhead{base{
		env:      env,
		name:     "jhead",
		formats:  jpegOnly,
		runOrder: -10,
		bins:     []string{"jhead", "jpegtran"},
		opts:     opts,
	}}, nil
}

func (w *jhead) Optimize(ctx context.Context, src, dst string) bool {
	return w.runInPlace(ctx, "jhead", func(target string) []string {
		return []string{"-q", "-autorot", "-dt", target}
	}, src, dst, true)
}

// jpegoptim optimizes Huffman tables and strips markers in place.
type jpegoptim struct {
	base
}

var jpegoptimSchema = Schema{
	{
		Name:        "strip",
		Kind:        KindStrings,
		Default:     []string{"all"},
		Description: "markers to strip: all, comments, exif, iptc, icc",
	},
	{
		Name:        "max_quality",
		Kind:        KindInt,
		Default:     100,
		Min:         0,
		Max:         100,
		Description: "maximum quality, values below 100 are lossy and need allow_lossy",
	},
}

func newJpegoptim(env *Env, raw map[string]any) (Worker, error) {
	opts, err := jpegoptimSchema.Resolve("jpegoptim", raw)
	if err != nil {
		return nil, err
	}
	return &jpegoptim{base{
		env:      env,
		name:     "jpegoptim",
		formats:  jpegOnly,
		runOrder: 0,
		bins:     []string{"jpegoptim"},
		opts:     opts,
	}}, nil
}

func (w *jpegoptim) Optimize(ctx context.Context, src, dst string) bool {
	return w.runInPlace(ctx, "jpegoptim", func(target string) []string {
		args := []string{"-q"}
		for _, marker := range optStrings(w.opts, "strip") {
			args = append(args, "--strip-"+marker)
		}
		if max := optInt(w.opts, "max_quality"); max < 100 && w.env.AllowLossy {
			args = append(args, "-m"+strconv.Itoa(max))
		}
		return append(args, target)
	}, src, dst, false)
}

// jpegtran losslessly recompresses, optionally to progressive encoding,
// writing dst directly.
type jpegtran struct {
	base
}

var jpegtranSchema = Schema{
	{
		Name:        "copy_chunks",
		Kind:        KindBool,
		Default:     false,
		Description: "copy all markers instead of dropping them",
	},
	{
		Name:        "progressive",
		Kind:        KindBool,
		Default:     true,
		Description: "produce a progressive JPEG",
	},
}

func newJpegtran(env *Env, raw map[string]any) (Worker, error) {
	opts, err := jpegtranSchema.Resolve("jpegtran", raw)
	if err != nil {
		return nil, err
	}
	return &jpegtran{base{
		env:      env,
		name:     "jpegtran",
		formats:  jpegOnly,
		runOrder: 10,
		bins:     []string{"jpegtran"},
		opts:     opts,
	}}, nil
}

func (w *jpegtran) Optimize(ctx context.Context, src, dst string) bool {
	args := []string{"-optimize"}
	if optBool(w.opts, "copy_chunks") {
		args = append(args, "-copy", "all")
	} else {
		args = append(args, "-copy", "none")
	}
	if optBool(w.opts, "progressive") {
		args = append(args, "-progressive")
	}
	args = append(args, "-outfile", dst, src)
	return w.runDirect(ctx, "jpegtran", args, src, dst, false)
}
