// Package pipeline coordinates idea generation and image rendering:
// sequential concept calls feeding a bounded, self-refilling render pool.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"paintflow/imagegen"
	"paintflow/logging"
)

// Renderer renders one painting to a terminal state. Satisfied by
// imagegen.Renderer.
type Renderer interface {
	Render(ctx context.Context, item imagegen.RenderItem) error
}

// Dispatcher runs render work with bounded parallelism. At most
// maxConcurrent renders are in flight at any moment; as soon as one
// finishes, its worker picks up the next queued item, so the pool stays
// full until the queue drains.
//
// Render failures are isolated: a failed item is already recorded on its
// painting row by the renderer, and the pool moves on. A batch has no
// overall failure state.
type Dispatcher struct {
	renderer      Renderer
	maxConcurrent int
	renderTimeout time.Duration
	logger        *logging.Logger
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRenderTimeout bounds each individual render. Zero means no bound
// beyond the HTTP client timeouts inside the renderer.
func WithRenderTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.renderTimeout = timeout
	}
}

// NewDispatcher creates a Dispatcher with the given concurrency bound.
// A bound below 1 is treated as 1.
func NewDispatcher(renderer Renderer, maxConcurrent int, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	d := &Dispatcher{
		renderer:      renderer,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run renders all items and blocks until every one has reached a terminal
// state. Callers wanting detached execution run it in a goroutine.
//
// An unbuffered channel feeds min(maxConcurrent, len(items)) workers:
// sends block until a worker is free, which is exactly the refill
// behavior the bound requires.
func (d *Dispatcher) Run(ctx context.Context, items []imagegen.RenderItem) {
	if len(items) == 0 {
		return
	}

	workers := d.maxConcurrent
	if len(items) < workers {
		workers = len(items)
	}

	d.logger.Info("render pool starting",
		zap.Int("items", len(items)),
		zap.Int("workers", workers),
	)

	queue := make(chan imagegen.RenderItem)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				if err := d.render(ctx, item); err != nil {
					// Already recorded on the painting row; log and move on
					d.logger.Warn("render failed",
						zap.Int64("painting_id", item.PaintingID),
						zap.Error(err),
					)
				}
			}
		}()
	}

	for _, item := range items {
		queue <- item
	}
	close(queue)
	wg.Wait()

	d.logger.Info("render pool drained", zap.Int("items", len(items)))
}

// render runs one item, applying the per-render timeout when configured.
func (d *Dispatcher) render(ctx context.Context, item imagegen.RenderItem) error {
	if d.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.renderTimeout)
		defer cancel()
	}
	return d.renderer.Render(ctx, item)
}
