package worker

import (
	"context"
	"strconv"

	"imageoptim/internal/imgformat"
)

var gifOnly = []imgformat.Format{imgformat.FormatGIF}

// gifsicle re-optimizes GIF frames and drops comments and names, writing
// dst directly.
type gifsicle struct {
	base
}

var gifsicleSchema = Schema{
	{
		Name:        "level",
		Kind:        KindInt,
		Default:     3,
		Min:         1,
		Max:         3,
		Description: "optimization level, 3 also tries transparency",
	},
	{
		Name:        "interlace",
		Kind:        KindBool,
		Default:     false,
		Description: "write interlaced output",
	},
	{
		Name:        "careful",
		Kind:        KindBool,
		Default:     false,
		Description: "avoid compression tricks some decoders mishandle",
	},
}

func newGifsicle(env *Env, raw map[string]any) (Worker, error) {
	opts, err := gifsicleSchema.Resolve("gifsicle", raw)
	if err != nil {
		return nil, err
	}
	return &gifsicle{base{
		env:      env,
		name:     "gifsicle",
		formats:  gifOnly,
		runOrder: 0,
		bins:     []string{"gifsicle"},
		opts:     opts,
	}}, nil
}

func (w *gifsicle) Optimize(ctx context.Context, src, dst string) bool {
	args := []string{
		"-O" + strconv.Itoa(optInt(w.opts, "level")),
		"--no-comments", "--no-names", "--same-delay", "--same-loopcount",
		"--no-warnings",
	}
	if optBool(w.opts, "interlace") {
		args = append(args, "-i")
	}
	if optBool(w.opts, "careful") {
		args = append(args, "--careful")
	}
	args = append(args, "-o", dst, src)
	return w.runDirect(ctx, "gifsicle", args, src, dst, false)
}
