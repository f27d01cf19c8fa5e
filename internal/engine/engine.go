// Package engine wires the format probe, worker registry, handler, and
// cache into the optimize pipeline: select the workers for an image's
// format, run them in order through the per-image handler, and emit the
// result only when it is strictly smaller than the original.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"imageoptim/internal/binres"
	"imageoptim/internal/cache"
	"imageoptim/internal/config"
	"imageoptim/internal/handler"
	"imageoptim/internal/imagepath"
	"imageoptim/internal/imgformat"
	"imageoptim/internal/logging"
	"imageoptim/internal/worker"
)

// lockRetryInterval paces in-place replacement lock acquisition.
const lockRetryInterval = 50 * time.Millisecond

// Engine runs the optimization pipeline. Construct with New; safe for
// concurrent use.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *binres.Resolver
	registry *worker.Registry
	cache    *cache.Store

	// warned tracks binaries already reported missing or broken, so a
	// batch over thousands of images warns once per binary.
	warned sync.Map
}

// New builds an engine from the configuration. Configuration problems
// (unknown workers, bad options) surface here, eagerly.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	resolver := binres.NewResolver(cfg.BinDir)
	env := &worker.Env{
		Resolver:       resolver,
		Logger:         logger,
		DefaultTimeout: time.Duration(cfg.Timeout * float64(time.Second)),
		AllowLossy:     cfg.AllowLossy,
	}
	registry, err := worker.NewRegistry(env, cfg.Workers)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		registry: registry,
	}
	if cfg.CacheDir != "" {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		e.cache = store
	}
	return e, nil
}

// Close releases engine-held resources.
func (e *Engine) Close() error {
	return e.cache.Close()
}

// Registry exposes the constructed worker set, mainly for diagnostics.
func (e *Engine) Registry() *worker.Registry { return e.registry }

// Resolver exposes the engine's binary resolver.
func (e *Engine) Resolver() *binres.Resolver { return e.resolver }

// Optimize runs the worker pipeline over the image at path. It returns
// the optimized temp file when the pipeline produced something strictly
// smaller, (nil, nil) when the input is not a recognized image or could
// not be reduced, and an error only for configuration or IO failures.
// The returned file is the caller's to consume or remove.
func (e *Engine) Optimize(ctx context.Context, path string) (*imagepath.Optimized, error) {
	p, err := imagepath.New(path)
	if err != nil {
		return nil, err
	}
	originalSize, err := p.Size()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	format, ok := e.detect(p)
	if !ok {
		return nil, nil
	}

	workers, err := e.applicableWorkers(format)
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return nil, nil
	}

	key := ""
	if e.cache != nil {
		key, err = cache.FileKey(p.String(), pipelineSignature(workers))
		if err != nil {
			return nil, err
		}
		dst := p.TempPath()
		hit, optimizable, err := e.cache.Fetch(ctx, key, dst)
		if err != nil {
			e.logger.Warn("cache fetch failed", logging.Error(err))
		} else if hit {
			if !optimizable {
				return nil, nil
			}
			return &imagepath.Optimized{Path: dst, Original: p, OriginalSize: originalSize}, nil
		}
	}

	h := handler.New(p)
	for _, w := range workers {
		if ctx.Err() != nil {
			_ = h.Discard()
			return nil, ctx.Err()
		}
		e.step(ctx, h, w)
	}

	result := h.Result()
	if result != nil {
		size, err := result.Size()
		if err != nil {
			_ = h.Discard()
			return nil, err
		}
		if size < originalSize {
			if err := h.Cleanup(); err != nil {
				e.logger.Warn("temp cleanup failed", logging.Error(err))
			}
			e.remember(ctx, key, result)
			return &imagepath.Optimized{Path: result, Original: p, OriginalSize: originalSize}, nil
		}
	}
	if err := h.Discard(); err != nil {
		e.logger.Warn("temp cleanup failed", logging.Error(err))
	}
	e.remember(ctx, key, nil)
	return nil, nil
}

// OptimizeInPlace optimizes path and, on success, atomically replaces the
// original with the optimized bytes. The returned Optimized points at the
// original location; OriginalSize is the size before replacement. The
// target is flock-guarded against concurrent in-place optimizers.
func (e *Engine) OptimizeInPlace(ctx context.Context, path string) (*imagepath.Optimized, error) {
	opt, err := e.Optimize(ctx, path)
	if err != nil || opt == nil {
		return nil, err
	}
	defer func() {
		_ = opt.Path.Remove()
	}()

	lock := flock.New(opt.Original.String())
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", opt.Original, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", opt.Original)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := opt.Path.Replace(opt.Original); err != nil {
		return nil, err
	}
	return &imagepath.Optimized{
		Path:         opt.Original,
		Original:     opt.Original,
		OriginalSize: opt.OriginalSize,
	}, nil
}

// OptimizeData optimizes an in-memory image. It returns nil bytes when the
// payload is not a recognized image or could not be reduced.
func (e *Engine) OptimizeData(ctx context.Context, data []byte) ([]byte, error) {
	format, derr := imgformat.DetectBytes(data)
	if derr != nil {
		e.warnDetect(derr)
		return nil, nil
	}
	if format == imgformat.FormatUnknown {
		return nil, nil
	}

	scratch := filepath.Join(os.TempDir(), "imageoptim."+uuid.NewString()+format.Ext())
	if err := os.WriteFile(scratch, data, 0o600); err != nil {
		return nil, fmt.Errorf("materialize payload: %w", err)
	}
	defer func() {
		_ = os.Remove(scratch)
	}()

	opt, err := e.Optimize(ctx, scratch)
	if err != nil || opt == nil {
		return nil, err
	}
	defer func() {
		_ = opt.Path.Remove()
	}()

	out, err := os.ReadFile(opt.Path.String())
	if err != nil {
		return nil, err
	}
	if bytes.Equal(out, data) {
		return nil, nil
	}
	return out, nil
}

// detect probes the image format, logging at most one warning for input
// that looks like an image but is broken.
func (e *Engine) detect(p *imagepath.Path) (imgformat.Format, bool) {
	format, err := p.Format()
	if err != nil {
		e.warnDetect(err)
		return imgformat.FormatUnknown, false
	}
	if format == imgformat.FormatUnknown {
		return imgformat.FormatUnknown, false
	}
	return format, true
}

func (e *Engine) warnDetect(err error) {
	var truncated *imgformat.TruncatedError
	if errors.As(err, &truncated) {
		e.logger.Warn("broken image header",
			logging.String(logging.FieldFormat, truncated.Format.String()),
			logging.Error(err))
		return
	}
	e.logger.Warn("image probe failed", logging.Error(err))
}

// applicableWorkers returns the ordered workers for format whose binaries
// resolve with acceptable versions. A missing binary normally skips the
// worker with a one-time warning; for a worker the user explicitly
// enabled it is fatal unless skip_missing_workers is set.
func (e *Engine) applicableWorkers(format imgformat.Format) ([]worker.Worker, error) {
	var usable []worker.Worker
	for _, w := range e.registry.ForFormat(format) {
		if err := e.checkBins(w); err != nil {
			if e.registry.Explicit(w.Name()) && !e.cfg.SkipMissingWorkers {
				return nil, fmt.Errorf("worker %s explicitly enabled: %w", w.Name(), err)
			}
			continue
		}
		usable = append(usable, w)
	}
	return usable, nil
}

func (e *Engine) checkBins(w worker.Worker) error {
	for _, name := range w.UsedBins() {
		bin, err := e.resolver.Resolve(name)
		if err == nil {
			err = worker.BinConstraint(name).Check(bin)
		}
		if err != nil {
			if _, dup := e.warned.LoadOrStore(name, struct{}{}); !dup {
				e.logger.Warn("worker skipped",
					logging.String(logging.FieldWorker, w.Name()),
					logging.String(logging.FieldBin, name),
					logging.Error(err))
			}
			return err
		}
	}
	return nil
}

// step applies one worker through the handler, converting any panic from
// the worker boundary into a failed step.
func (e *Engine) step(ctx context.Context, h *handler.Handler, w worker.Worker) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("worker panicked",
				logging.String(logging.FieldWorker, w.Name()),
				logging.Any("panic", r))
		}
	}()
	h.Process(func(src, dst string) bool {
		return w.Optimize(ctx, src, dst)
	})
}

func (e *Engine) remember(ctx context.Context, key string, result *imagepath.Path) {
	if e.cache == nil || key == "" {
		return
	}
	if err := e.cache.Store(ctx, key, result); err != nil {
		e.logger.Warn("cache store failed", logging.Error(err))
	}
}

// pipelineSignature folds the applicable worker set and options into a
// stable string for cache keying.
func pipelineSignature(workers []worker.Worker) string {
	var sb strings.Builder
	for _, w := range workers {
		sb.WriteString(w.Name())
		opts := w.Options()
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "|%s=%v", k, opts[k])
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
