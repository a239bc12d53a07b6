// Package dispatch fans independent units of work out to a bounded worker
// pool and joins their results in input order.
package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the largest number of units processed sequentially.
const DefaultThreshold = 4

// Dispatcher decides between sequential and parallel execution.
type Dispatcher struct {
	threshold int
	workers   int
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithThreshold sets the unit count above which work runs in parallel.
func WithThreshold(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.threshold = n
		}
	}
}

// WithWorkers bounds the worker pool. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger used to report failed units.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New returns a Dispatcher with the default threshold and GOMAXPROCS workers.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		threshold: DefaultThreshold,
		workers:   runtime.GOMAXPROCS(0),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured threshold.
func (d *Dispatcher) Threshold() int {
	return d.threshold
}

// Workers returns the configured pool size.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Map applies fn to every item and returns the results in input order.
//
// Up to the threshold the items are processed on the calling goroutine;
// above it they are spread over the worker pool. A unit that returns an
// error or panics contributes the zero value of R and is logged; the other
// units are unaffected. If ctx is cancelled, Map returns ctx.Err() and no
// results.
func Map[T, R any](ctx context.Context, d *Dispatcher, items []T, fn func(context.Context, int, T) (R, error)) ([]R, error) {
	if d == nil {
		d = New()
	}
	results := make([]R, len(items))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return results, nil
	}

	if len(items) <= d.threshold {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = runUnit(ctx, d.logger, i, item, fn)
		}
		return results, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.workers)
	for i, item := range items {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = runUnit(groupCtx, d.logger, i, item, fn)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runUnit isolates one unit: errors and panics are logged and replaced by
// the zero value.
func runUnit[T, R any](ctx context.Context, logger *zap.Logger, i int, item T, fn func(context.Context, int, T) (R, error)) (result R) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("dispatch unit panicked",
				zap.Int("unit", i),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
			var zero R
			result = zero
		}
	}()

	out, err := fn(ctx, i, item)
	if err != nil {
		logger.Warn("dispatch unit failed", zap.Int("unit", i), zap.Error(err))
		var zero R
		return zero
	}
	return out
}
