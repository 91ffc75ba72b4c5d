package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// gate is the single serialization point for everything that mutates the
// market. Both sides share the cost function, so it covers the whole market.
// Waiters are served in FIFO order and give up after timeout.
type gate struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newGate(timeout time.Duration) *gate {
	return &gate{sem: semaphore.NewWeighted(1), timeout: timeout}
}

func (g *gate) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketBusy, err)
	}
	return func() { g.sem.Release(1) }, nil
}
