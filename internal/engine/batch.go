package engine

import (
	"context"
	"sync"

	"imageoptim/internal/imagepath"
)

// backpressure bounds how far ahead of the pool the feeder pulls.
const backpressure = 2

// Result is the outcome for one input of a batch call. Results are
// returned in input order regardless of completion order.
type Result struct {
	// Path is the input as given by the caller.
	Path string
	// Optimized is nil when the input could not be reduced.
	Optimized *imagepath.Optimized
	// Err records a per-input IO failure; the batch continues past it.
	Err error
	// Value holds the callback's return value when a callback was given.
	Value any
}

// DataResult is Result's counterpart for in-memory payloads.
type DataResult struct {
	Index int
	Data  []byte
	// Out is nil when the payload could not be reduced.
	Out []byte
	Err error
	// Value holds the callback's return value when a callback was given.
	Value any
}

// EachFunc observes one finished input. Invocations happen in completion
// order, serialized by the driver; the values they return are collected in
// input order.
type EachFunc func(path string, optimized *imagepath.Optimized, err error) any

// DataEachFunc is EachFunc for in-memory payloads.
type DataEachFunc func(index int, data, out []byte, err error) any

// OptimizeMany applies Optimize across paths with up to cfg.Threads images
// in flight. Per-input failures are recorded in the result, not returned;
// the returned error is non-nil only when the context was cancelled, in
// which case inputs that never started carry the cancellation error.
func (e *Engine) OptimizeMany(ctx context.Context, paths []string, fn EachFunc) ([]Result, error) {
	results := make([]Result, len(paths))
	err := e.runPool(ctx, len(paths), func(ctx context.Context, i int) {
		opt, err := e.Optimize(ctx, paths[i])
		results[i] = Result{Path: paths[i], Optimized: opt, Err: err}
	}, func(i int) {
		if fn != nil {
			results[i].Value = fn(paths[i], results[i].Optimized, results[i].Err)
		}
	}, func(i int, err error) {
		results[i] = Result{Path: paths[i], Err: err}
	})
	return results, err
}

// OptimizeManyInPlace is OptimizeMany over OptimizeInPlace.
func (e *Engine) OptimizeManyInPlace(ctx context.Context, paths []string, fn EachFunc) ([]Result, error) {
	results := make([]Result, len(paths))
	err := e.runPool(ctx, len(paths), func(ctx context.Context, i int) {
		opt, err := e.OptimizeInPlace(ctx, paths[i])
		results[i] = Result{Path: paths[i], Optimized: opt, Err: err}
	}, func(i int) {
		if fn != nil {
			results[i].Value = fn(paths[i], results[i].Optimized, results[i].Err)
		}
	}, func(i int, err error) {
		results[i] = Result{Path: paths[i], Err: err}
	})
	return results, err
}

// OptimizeManyData is OptimizeMany over in-memory payloads.
func (e *Engine) OptimizeManyData(ctx context.Context, blobs [][]byte, fn DataEachFunc) ([]DataResult, error) {
	results := make([]DataResult, len(blobs))
	err := e.runPool(ctx, len(blobs), func(ctx context.Context, i int) {
		out, err := e.OptimizeData(ctx, blobs[i])
		results[i] = DataResult{Index: i, Data: blobs[i], Out: out, Err: err}
	}, func(i int) {
		if fn != nil {
			results[i].Value = fn(i, blobs[i], results[i].Out, results[i].Err)
		}
	}, func(i int, err error) {
		results[i] = DataResult{Index: i, Data: blobs[i], Err: err}
	})
	return results, err
}

// runPool drives n jobs through a bounded worker pool. run executes the
// job, notify fires in completion order under the driver's lock, and skip
// marks jobs that were never started after cancellation. Already-started
// jobs are allowed to finish; subsequent ones are not started.
func (e *Engine) runPool(
	ctx context.Context,
	n int,
	run func(ctx context.Context, i int),
	notify func(i int),
	skip func(i int, err error),
) error {
	threads := e.cfg.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}

	// The feeder pulls at most threads+backpressure jobs ahead of the
	// slowest worker, so lazy producers upstream are not drained eagerly.
	jobs := make(chan int, backpressure)
	var feedStopped sync.WaitGroup
	feedStopped.Add(1)
	go func() {
		defer feedStopped.Done()
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				skip(i, ctx.Err())
				for j := i + 1; j < n; j++ {
					skip(j, ctx.Err())
				}
				return
			}
		}
	}()

	var notifyMu sync.Mutex
	var pool sync.WaitGroup
	for t := 0; t < threads; t++ {
		pool.Add(1)
		go func() {
			defer pool.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					skip(i, ctx.Err())
					continue
				}
				run(ctx, i)
				notifyMu.Lock()
				notify(i)
				notifyMu.Unlock()
			}
		}()
	}

	pool.Wait()
	feedStopped.Wait()
	return ctx.Err()
}
