// Package worker adapts the external optimizer binaries to one uniform
// contract: Optimize(src, dst) reporting whether dst now holds a better
// rendition of src. Workers are stateless across calls; concurrent calls
// on distinct (src, dst) pairs do not interfere.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"imageoptim/internal/binres"
	"imageoptim/internal/imagepath"
	"imageoptim/internal/imgformat"
	"imageoptim/internal/logging"
)

var commandContext = exec.CommandContext

// killWait bounds how long a killed binary's output pipes may stay open
// (held by its own children) before the step gives up on them.
const killWait = 500 * time.Millisecond

// Worker is the uniform contract the engine drives. A true return from
// Optimize means dst was written and contains a valid image no worse than
// src per the worker's own criterion. Workers never return errors or
// panic across this boundary; every internal failure becomes false.
type Worker interface {
	Name() string
	Formats() []imgformat.Format
	RunOrder() int
	UsedBins() []string
	Options() map[string]any
	Optimize(ctx context.Context, src, dst string) bool
}

// Env carries the collaborators shared by every worker instance.
type Env struct {
	Resolver *binres.Resolver
	Logger   *slog.Logger
	// DefaultTimeout applies when a worker's own timeout option is zero.
	DefaultTimeout time.Duration
	// AllowLossy unlocks the lossy workers and options.
	AllowLossy bool
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

type base struct {
	env      *Env
	name     string
	formats  []imgformat.Format
	runOrder int
	bins     []string
	opts     map[string]any
}

func (b *base) Name() string { return b.name }

func (b *base) Formats() []imgformat.Format {
	return append([]imgformat.Format(nil), b.formats...)
}

func (b *base) RunOrder() int { return b.runOrder }

func (b *base) UsedBins() []string {
	return append([]string(nil), b.bins...)
}

func (b *base) Options() map[string]any {
	out := make(map[string]any, len(b.opts))
	for k, v := range b.opts {
		out[k] = v
	}
	return out
}

func (b *base) timeout() time.Duration {
	if t := optTimeout(b.opts); t > 0 {
		return t
	}
	return b.env.DefaultTimeout
}

// execute runs binName with args, honoring the worker timeout. True iff
// the process exited zero. Timeouts kill the process and report false.
func (b *base) execute(ctx context.Context, binName string, args []string) bool {
	logger := b.env.logger()

	bin, err := b.env.Resolver.Resolve(binName)
	if err != nil {
		logger.Debug("worker binary unavailable",
			logging.String(logging.FieldWorker, b.name),
			logging.String(logging.FieldBin, binName),
			logging.Error(err))
		return false
	}

	if t := b.timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	cmd := commandContext(ctx, bin.Path, args...)
	cmd.WaitDelay = killWait
	output, err := cmd.CombinedOutput()
	if err == nil {
		return true
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		logger.Warn("worker timed out",
			logging.String(logging.FieldWorker, b.name),
			logging.String(logging.FieldBin, binName),
			logging.Duration("timeout", b.timeout()))
	case errors.Is(ctx.Err(), context.Canceled):
		// Shutdown in progress; stay quiet.
	default:
		logger.Debug("worker command failed",
			logging.String(logging.FieldWorker, b.name),
			logging.String(logging.FieldBin, binName),
			logging.String("output", string(output)),
			logging.Error(err))
	}
	return false
}

// runDirect drives a binary that writes dst itself. A stale dst from an
// earlier failed step is removed first so the binary starts clean.
func (b *base) runDirect(ctx context.Context, binName string, args []string, src, dst string, acceptEqual bool) bool {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return false
	}
	if !b.execute(ctx, binName, args) {
		return false
	}
	return improved(src, dst, acceptEqual)
}

// runInPlace drives a binary that rewrites its operand: dst is seeded with
// src's bytes and the binary runs against dst.
func (b *base) runInPlace(ctx context.Context, binName string, argv func(target string) []string, src, dst string, acceptEqual bool) bool {
	if err := copyFile(src, dst); err != nil {
		b.env.logger().Debug("seed in-place target",
			logging.String(logging.FieldWorker, b.name),
			logging.Error(err))
		return false
	}
	if !b.execute(ctx, binName, argv(dst)) {
		return false
	}
	return improved(src, dst, acceptEqual)
}

// improved reports whether dst exists, is nonempty, and is strictly
// smaller than src (no larger, when acceptEqual).
func improved(src, dst string, acceptEqual bool) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil || dstInfo.Size() == 0 {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	if acceptEqual {
		return dstInfo.Size() <= srcInfo.Size()
	}
	return dstInfo.Size() < srcInfo.Size()
}

func copyFile(src, dst string) error {
	p, err := imagepath.New(src)
	if err != nil {
		return err
	}
	return p.Copy(dst)
}
