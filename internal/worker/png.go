package worker

import (
	"context"
	"fmt"
	"strconv"

	"imageoptim/internal/imgformat"
)

var pngOnly = []imgformat.Format{imgformat.FormatPNG}

// pngquant quantizes to a palette. Inherently lossy, so the quality floor
// stays at 100 unless allow_lossy is set, which makes it a no-op on images
// that cannot be palettized without visible loss.
type pngquant struct {
	base
}

var pngquantSchema = Schema{
	{
		Name:        "quality",
		Kind:        KindInt,
		Default:     100,
		Min:         0,
		Max:         100,
		Description: "minimum acceptable quality, values below 100 need allow_lossy",
	},
	{
		Name:        "speed",
		Kind:        KindInt,
		Default:     3,
		Min:         1,
		Max:         11,
		Description: "speed/quality trade-off, 1 slowest",
	},
}

func newPngquant(env *Env, raw map[string]any) (Worker, error) {
	opts, err := pngquantSchema.Resolve("pngquant", raw)
	if err != nil {
		return nil, err
	}
	return &pngquant{base{
		env:      env,
		name:     "pngquant",
		formats:  pngOnly,
		runOrder: -5,
		bins:     []string{"pngquant"},
		opts:     opts,
	}}, nil
}

func (w *pngquant) Optimize(ctx context.Context, src, dst string) bool {
	quality := 100
	if w.env.AllowLossy {
		quality = optInt(w.opts, "quality")
	}
	args := []string{
		fmt.Sprintf("--quality=%d-100", quality),
		"--speed", strconv.Itoa(optInt(w.opts, "speed")),
		"--force",
		"--output", dst,
		src,
	}
	return w.runDirect(ctx, "pngquant", args, src, dst, false)
}

// pngcrush tries multiple filter/strategy combinations, writing dst
// directly.
type pngcrush struct {
	base
}

var pngcrushSchema = Schema{
	{
		Name:        "chunks",
		Kind:        KindStrings,
		Default:     []string{"alla"},
		Description: "ancillary chunks to remove, 'alla' for all but transparency",
	},
	{
		Name:        "fix",
		Kind:        KindBool,
		Default:     false,
		Description: "fix otherwise fatal conditions such as bad CRCs",
	},
	{
		Name:        "brute",
		Kind:        KindBool,
		Default:     false,
		Description: "try all 148 method combinations, much slower",
	},
	{
		Name:        "blacken",
		Kind:        KindBool,
		Default:     true,
		Description: "zero samples of fully transparent pixels to aid compression",
	},
}

func newPngcrush(env *Env, raw map[string]any) (Worker, error) {
	opts, err := pngcrushSchema.Resolve("pngcrush", raw)
	if err != nil {
		return nil, err
	}
	return &pngcrush{base{
		env:      env,
		name:     "pngcrush",
		formats:  pngOnly,
		runOrder: 0,
		bins:     []string{"pngcrush"},
		opts:     opts,
	}}, nil
}

func (w *pngcrush) Optimize(ctx context.Context, src, dst string) bool {
	args := []string{"-reduce", "-q"}
	for _, chunk := range optStrings(w.opts, "chunks") {
		args = append(args, "-rem", chunk)
	}
	if optBool(w.opts, "fix") {
		args = append(args, "-fix")
	}
	if optBool(w.opts, "brute") {
		args = append(args, "-brute")
	}
	if optBool(w.opts, "blacken") {
		args = append(args, "-blacken")
	}
	args = append(args, src, dst)
	return w.runDirect(ctx, "pngcrush", args, src, dst, false)
}

// optipng runs the classic trial-based optimizer in place.
type optipng struct {
	base
}

var optipngSchema = Schema{
	{
		Name:        "level",
		Kind:        KindInt,
		Default:     6,
		Min:         0,
		Max:         7,
		Description: "optimization level",
	},
	{
		Name:        "interlace",
		Kind:        KindBool,
		Default:     false,
		Description: "write interlaced output",
	},
	{
		Name:        "strip",
		Kind:        KindBool,
		Default:     true,
		Description: "strip all metadata chunks",
	},
}

func newOptipng(env *Env, raw map[string]any) (Worker, error) {
	opts, err := optipngSchema.Resolve("optipng", raw)
	if err != nil {
		return nil, err
	}
	return &optipng{base{
		env:      env,
		name:     "optipng",
		formats:  pngOnly,
		runOrder: 5,
		bins:     []string{"optipng"},
		opts:     opts,
	}}, nil
}

func (w *optipng) Optimize(ctx context.Context, src, dst string) bool {
	return w.runInPlace(ctx, "optipng", func(target string) []string {
		args := []string{"-quiet", "-o" + strconv.Itoa(optInt(w.opts, "level"))}
		if optBool(w.opts, "interlace") {
			args = append(args, "-i1")
		} else {
			args = append(args, "-i0")
		}
		if optBool(w.opts, "strip") {
			args = append(args, "-strip", "all")
		}
		return append(args, target)
	}, src, dst, false)
}

// oxipng is the multithreaded optipng successor, run in place.
type oxipng struct {
	base
}

var oxipngSchema = Schema{
	{
		Name:        "level",
		Kind:        KindInt,
		Default:     3,
		Min:         0,
		Max:         6,
		Description: "optimization level",
	},
	{
		Name:        "strip",
		Kind:        KindBool,
		Default:     true,
		Description: "strip safe-to-remove metadata chunks",
	},
}

func newOxipng(env *Env, raw map[string]any) (Worker, error) {
	opts, err := oxipngSchema.Resolve("oxipng", raw)
	if err != nil {
		return nil, err
	}
	return &oxipng{base{
		env:      env,
		name:     "oxipng",
		formats:  pngOnly,
		runOrder: 6,
		bins:     []string{"oxipng"},
		opts:     opts,
	}}, nil
}

func (w *oxipng) Optimize(ctx context.Context, src, dst string) bool {
	return w.runInPlace(ctx, "oxipng", func(target string) []string {
		args := []string{"-q", "-o", strconv.Itoa(optInt(w.opts, "level"))}
		if optBool(w.opts, "strip") {
			args = append(args, "--strip", "safe")
		}
		return append(args, target)
	}, src, dst, false)
}

// advpng recompresses IDAT with zopfli, in place.
type advpng struct {
	base
}

var advpngSchema = Schema{
	{
		Name:        "level",
		Kind:        KindInt,
		Default:     4,
		Min:         0,
		Max:         4,
		Description: "compression level, 4 uses zopfli",
	},
}

func newAdvpng(env *Env, raw map[string]any) (Worker, error) {
	opts, err := advpngSchema.Resolve("advpng", raw)
	if err != nil {
		return nil, err
	}
	return &advpng{base{
		env:      env,
		name:     "advpng",
		formats:  pngOnly,
		runOrder: 7,
		bins:     []string{"advpng"},
		opts:     opts,
	}}, nil
}

func (w *advpng) Optimize(ctx context.Context, src, dst string) bool {
	return w.runInPlace(ctx, "advpng", func(target string) []string {
		return []string{"-z", "-" + strconv.Itoa(optInt(w.opts, "level")), "-q", target}
	}, src, dst, false)
}

// pngout squeezes the last bytes with KZIP deflate. Slow, so it runs last.
type pngout struct {
	base
}

var pngoutSchema = Schema{
	{
		Name:        "copy_chunks",
		Kind:        KindBool,
		Default:     false,
		Description: "keep ancillary chunks",
	},
	{
		Name:        "strategy",
		Kind:        KindInt,
		Default:     0,
		Min:         0,
		Max:         4,
		Description: "0 xtreme .. 4 huffman-only",
	},
}

func newPngout(env *Env, raw map[string]any) (Worker, error) {
	opts, err := pngoutSchema.Resolve("pngout", raw)
	if err != nil {
		return nil, err
	}
	return &pngout{base{
		env:      env,
		name:     "pngout",
		formats:  pngOnly,
		runOrder: 10,
		bins:     []string{"pngout"},
		opts:     opts,
	}}, nil
}

func (w *pngout) Optimize(ctx context.Context, src, dst string) bool {
	args := []string{"-s" + strconv.Itoa(optInt(w.opts, "strategy")), "-q", "-y"}
	if optBool(w.opts, "copy_chunks") {
		args = append(args, "-k1")
	} else {
		args = append(args, "-k0")
	}
	args = append(args, src, dst)
	return w.runDirect(ctx, "pngout", args, src, dst, false)
}
