// Package engine provides the bounded worker pool that model fitters use to
// train independent units of work, such as the trees of a forest.
//
// An Engine is opened once per pipeline run and closed when the run ends:
//
//	eng, err := engine.Open(threads, logger)
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("engine: closed")

// Engine runs tasks on at most Threads goroutines.
type Engine struct {
	threads int
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	active sync.WaitGroup
}

// Open starts an engine. threads <= 0 uses GOMAXPROCS.
func Open(threads int, log *zap.Logger) (*Engine, error) {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("engine opened", zap.Int("threads", threads))
	return &Engine{threads: threads, log: log}, nil
}

// Threads reports the worker limit.
func (e *Engine) Threads() int { return e.threads }

// Run calls task(ctx, i) for i in [0, n). The first error cancels the
// context passed to the remaining tasks and is returned once every started
// task has finished. Tasks must only write state owned by index i.
func (e *Engine) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.active.Add(1)
	e.mu.Unlock()
	defer e.active.Done()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return task(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Close waits for running work and rejects further calls to Run. It is safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.active.Wait()
	e.log.Debug("engine closed")
	return nil
}
