// Package worker provides the execution context of a chain worker and the
// barrier that keeps the workers of a group in lockstep.
//
// A group runs the same function on every member (single program, multiple
// data). Members are told apart only by their rank.
package worker

import (
	"context"
	"errors"
)

var (
	// ErrAborted is returned by Wait when the group is torn down while a member
	// is blocked at the barrier.
	ErrAborted = errors.New("worker group aborted")
	// ErrInvalidSize is returned when a group is created with fewer than one
	// member.
	ErrInvalidSize = errors.New("invalid worker group size")
)

// Context identifies a worker within its group. It does not change during a
// run.
type Context struct {
	Rank int
	Size int
}

// IsLeader reports whether this worker is the designated leader (rank 0).
func (c Context) IsLeader() bool {
	return c.Rank == 0
}

// Distributed reports whether the worker runs alongside other workers.
func (c Context) Distributed() bool {
	return c.Size > 1
}

// Member is one worker's view of its group.
type Member interface {
	// Context returns the worker's rank and the group size.
	Context() Context
	// Wait blocks until every member of the group has called Wait for the
	// current generation.
	Wait(ctx context.Context) error
}

type solo struct{}

// Solo returns the member of a group of one. Its Wait returns immediately.
func Solo() Member {
	return solo{}
}

func (solo) Context() Context {
	return Context{Rank: 0, Size: 1}
}

func (solo) Wait(context.Context) error {
	return nil
}
