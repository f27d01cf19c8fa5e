package worker

import (
	"context"

	"imageoptim/internal/imgformat"
)

var svgOnly = []imgformat.Format{imgformat.FormatSVG}

// svgo minifies SVG markup, writing dst directly.
type svgo struct {
	base
}

var svgoSchema = Schema{
	{
		Name:        "disable_plugins",
		Kind:        KindStrings,
		Default:     []string(nil),
		Description: "svgo plugins to disable",
	},
	{
		Name:        "enable_plugins",
		Kind:        KindStrings,
		Default:     []string(nil),
		Description: "svgo plugins to enable",
	},
}

func newSvgo(env *Env, raw map[string]any) (Worker, error) {
	opts, err := svgoSchema.Resolve("svgo", raw)
	if err != nil {
		return nil, err
	}
	return &svgo{base{
		env:      env,
		name:     "svgo",
		formats:  svgOnly,
		runOrder: 0,
		bins:     []string{"svgo"},
		opts:     opts,
	}}, nil
}

func (w *svgo) Optimize(ctx context.Context, src, dst string) bool {
	var args []string
	for _, plugin := range optStrings(w.opts, "disable_plugins") {
		args = append(args, "--disable="+plugin)
	}
	for _, plugin := range optStrings(w.opts, "enable_plugins") {
		args = append(args, "--enable="+plugin)
	}
	args = append(args, "--input", src, "--output", dst)
	return w.runDirect(ctx, "svgo", args, src, dst, false)
}
