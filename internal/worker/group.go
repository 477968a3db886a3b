package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/chainrun/internal/ctxlog"
)

// barrier is a cyclic barrier for a fixed number of parties. Each time the
// last party arrives, every waiter is released and a new generation starts.
type barrier struct {
	mu          sync.Mutex
	parties     int
	arrived     int
	release     chan struct{}
	generations int
}

func newBarrier(parties int) *barrier {
	return &barrier{
		parties: parties,
		release: make(chan struct{}),
	}
}

func (b *barrier) wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.release
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.generations++
		close(release)
		b.release = make(chan struct{})
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrAborted, context.Cause(ctx))
	}
}

func (b *barrier) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generations
}

type member struct {
	wctx    Context
	barrier *barrier
}

func (m *member) Context() Context {
	return m.wctx
}

func (m *member) Wait(ctx context.Context) error {
	return m.barrier.wait(ctx)
}

// Group runs a fixed number of in-process workers that share one barrier.
type Group struct {
	size int

	mu      sync.Mutex
	barrier *barrier
}

// NewGroup creates a group of size workers.
func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Group{size: size, barrier: newBarrier(size)}, nil
}

// Size returns the number of workers in the group.
func (g *Group) Size() int {
	return g.size
}

// Run starts every worker with fn and waits for all of them. The first error
// cancels the context shared by the workers, which releases any member blocked
// in Wait with ErrAborted. Run returns that first error.
func (g *Group) Run(ctx context.Context, fn func(ctx context.Context, m Member) error) error {
	b := newBarrier(g.size)
	g.mu.Lock()
	g.barrier = b
	g.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	for rank := 0; rank < g.size; rank++ {
		rank := rank
		m := &member{wctx: Context{Rank: rank, Size: g.size}, barrier: b}
		eg.Go(func() error {
			workerCtx, logger := ctxlog.With(egCtx, "rank", rank, "size", g.size)
			logger.Debug("Worker started.")
			if err := fn(workerCtx, m); err != nil {
				logger.Debug("Worker failed.", "error", err)
				return err
			}
			logger.Debug("Worker finished.")
			return nil
		})
	}
	return eg.Wait()
}

// Generations returns how many times the barrier of the last run released its
// members.
func (g *Group) Generations() int {
	g.mu.Lock()
	b := g.barrier
	g.mu.Unlock()
	return b.count()
}
