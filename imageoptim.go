// Package imageoptim losslessly reduces the byte size of JPEG, PNG, GIF,
// SVG, and WebP images by driving a portfolio of external optimization
// binaries (jpegoptim, jpegtran, pngcrush, optipng, pngquant, advpng,
// gifsicle, svgo, ...) and keeping, per image, the smallest pixel-identical
// result.
//
// The package-level functions operate on a lazily-initialized default
// engine configured from the usual files (the global config under
// XDG_CONFIG_HOME and the local .imageoptim.toml). Construct an
// engine.Engine directly for explicit configuration.
package imageoptim

import (
	"context"
	"sync"

	"imageoptim/internal/config"
	"imageoptim/internal/engine"
	"imageoptim/internal/imagepath"
	"imageoptim/internal/logging"
)

// Optimized is the annotated result path produced for a reduced image.
type Optimized = imagepath.Optimized

// Result is the per-input outcome of a batch call.
type Result = engine.Result

// DataResult is the per-payload outcome of a data batch call.
type DataResult = engine.DataResult

// EachFunc observes batch completions; see engine.EachFunc.
type EachFunc = engine.EachFunc

// DataEachFunc observes data batch completions; see engine.DataEachFunc.
type DataEachFunc = engine.DataEachFunc

var (
	defaultMu     sync.Mutex
	defaultEngine *engine.Engine
	defaultErr    error
)

// Default returns the shared engine, constructing it on first use.
func Default() (*engine.Engine, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine == nil && defaultErr == nil {
		defaultEngine, defaultErr = buildDefault()
	}
	return defaultEngine, defaultErr
}

// ResetDefault discards the shared engine so the next call rebuilds it.
// Intended for tests that change configuration files or PATH.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine != nil {
		_ = defaultEngine.Close()
	}
	defaultEngine = nil
	defaultErr = nil
}

func buildDefault() (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, logger)
}

// Optimize optimizes the image at path into a sibling temp file. It
// returns (nil, nil) when the input is not a recognized image or could not
// be reduced; the returned file is the caller's to consume or remove.
func Optimize(ctx context.Context, path string) (*Optimized, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.Optimize(ctx, path)
}

// OptimizeInPlace optimizes the image at path and atomically replaces the
// original with the smaller bytes.
func OptimizeInPlace(ctx context.Context, path string) (*Optimized, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.OptimizeInPlace(ctx, path)
}

// OptimizeData optimizes an in-memory image, returning nil when the
// payload is not a recognized image or could not be reduced.
func OptimizeData(ctx context.Context, data []byte) ([]byte, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.OptimizeData(ctx, data)
}

// OptimizeMany optimizes paths concurrently; results come back in input
// order. fn may be nil.
func OptimizeMany(ctx context.Context, paths []string, fn EachFunc) ([]Result, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.OptimizeMany(ctx, paths, fn)
}

// OptimizeManyInPlace is OptimizeMany with in-place replacement.
func OptimizeManyInPlace(ctx context.Context, paths []string, fn EachFunc) ([]Result, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.OptimizeManyInPlace(ctx, paths, fn)
}

// OptimizeManyData optimizes in-memory payloads concurrently.
func OptimizeManyData(ctx context.Context, blobs [][]byte, fn DataEachFunc) ([]DataResult, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}
	return e.OptimizeManyData(ctx, blobs, fn)
}
