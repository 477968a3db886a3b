// Package executor runs a chain of stages over a dataset.
//
// Every worker of a group runs the same chain with its own Executor.Run call.
// After each stage the workers meet at the group barrier, so stage i has
// finished on every worker before stage i+1 starts on any of them. Only the
// leader appends provenance records to the saved chain file.
package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/ctxlog"
	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/stage"
	"github.com/specialistvlad/chainrun/internal/worker"
)

// DefaultExtension is the file extension of stage outputs.
const DefaultExtension = "h5"

// Resolver turns a stage identifier into a fresh stage instance.
type Resolver interface {
	Resolve(id string) (stage.Stage, error)
}

// Allocator creates the output dataset of a stage.
type Allocator interface {
	Allocate(ctx context.Context, st stage.Stage, in dataset.Dataset, path string, distributed bool) (dataset.Dataset, error)
}

// DefinitionStore persists the chain definition and its provenance records.
type DefinitionStore interface {
	Save(def *chaindef.Definition, dest string) error
	AddProvenance(dest string, index int, rec stage.Provenance) error
}

// Observer is notified around every stage a worker runs. Implementations
// must be safe for concurrent use by all workers of a group.
type Observer interface {
	StageStarted(wctx worker.Context, index int, id string)
	StageFinished(wctx worker.Context, index int, id string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) StageStarted(worker.Context, int, string) {}
func (nopObserver) StageFinished(worker.Context, int, string, time.Duration, error) {}

// Option configures an Executor.
type Option func(*Executor)

// WithExtension sets the file extension of stage outputs.
func WithExtension(ext string) Option {
	return func(e *Executor) {
		e.ext = ext
	}
}

// WithObserver sets the observer notified around every stage.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// Executor drives a chain of stages.
type Executor struct {
	resolver  Resolver
	allocator Allocator
	store     DefinitionStore
	ext       string
	observer  Observer
}

// New creates an Executor.
func New(resolver Resolver, allocator Allocator, store DefinitionStore, opts ...Option) *Executor {
	e := &Executor{
		resolver:  resolver,
		allocator: allocator,
		store:     store,
		ext:       DefaultExtension,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OutputPath returns the deterministic location of the output of the stage at
// index.
func OutputPath(outDir, name string, index int, id, ext string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s%02d_%s.%s", name, index, id, ext))
}

// Run executes def over input and returns the final output dataset, which
// has already been retired. An empty chain returns input untouched.
//
// The definition is saved next to the outputs before the first stage runs.
// Run stops at the first failing stage and returns a *StageError; the input of
// that stage and any output allocated for it are retired first. Outputs
// already written stay on disk.
func (e *Executor) Run(ctx context.Context, input dataset.Dataset, def *chaindef.Definition, outDir string, member worker.Member) (dataset.Dataset, error) {
	ctx, logger := ctxlog.With(ctx, "chain", def.Name)

	dest := chaindef.Destination(outDir, input.Path())
	if err := e.store.Save(def, dest); err != nil {
		if cerr := input.Complete(); cerr != nil {
			logger.Warn("Failed to retire input after save failure.", "path", input.Path(), "error", cerr)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDefinition, dest, err)
	}
	logger.Debug("Saved chain definition.", "path", dest, "stages", len(def.Stages))

	if len(def.Stages) == 0 {
		logger.Info("Chain is empty, nothing to run.")
		return input, nil
	}

	current := input
	for i, desc := range def.Stages {
		out, err := e.runStage(ctx, i, desc, current, def.Name, outDir, dest, member)
		if err != nil {
			return nil, err
		}
		current = out
	}

	last := len(def.Stages) - 1
	if err := current.Complete(); err != nil {
		return nil, stageError(last, def.Stages[last].ID, ErrRetirement, err)
	}
	logger.Info("Chain completed.", "output", current.Path())
	return current, nil
}

// runStage runs one stage and returns its live output.
func (e *Executor) runStage(ctx context.Context, i int, desc chaindef.Descriptor, in dataset.Dataset, name, outDir, dest string, member worker.Member) (_ dataset.Dataset, err error) {
	wctx := member.Context()
	ctx, logger := ctxlog.With(ctx, "stage", desc.ID, "index", i)

	var out dataset.Dataset
	inRetired := false
	start := time.Now()
	e.observer.StageStarted(wctx, i, desc.ID)

	defer func() {
		if err != nil {
			if !inRetired {
				if cerr := in.Complete(); cerr != nil {
					logger.Warn("Failed to retire stage input.", "path", in.Path(), "error", cerr)
				}
			}
			if out != nil {
				if cerr := out.Complete(); cerr != nil {
					logger.Warn("Failed to retire stage output.", "path", out.Path(), "error", cerr)
				}
			}
			logger.Error("Stage failed.", "error", err)
		}
		e.observer.StageFinished(wctx, i, desc.ID, time.Since(start), err)
	}()

	logger.Debug("Resolving stage.")
	st, err := e.resolver.Resolve(desc.ID)
	if err != nil {
		return nil, stageError(i, desc.ID, ErrResolution, err)
	}

	path := OutputPath(outDir, name, i, desc.ID, e.ext)
	out, err = e.allocator.Allocate(ctx, st, in, path, wctx.Distributed())
	if err != nil {
		out = nil
		return nil, stageError(i, desc.ID, ErrAllocation, err)
	}

	if err := st.Configure(desc.Params); err != nil {
		return nil, stageError(i, desc.ID, ErrConfiguration, err)
	}

	logger.Info("Starting stage.", "input", in.Path(), "output", path)
	if err := st.Process(ctx, in, out, wctx.Size, wctx.Rank); err != nil {
		return nil, stageError(i, desc.ID, ErrProcessing, err)
	}

	inRetired = true
	if err := in.Complete(); err != nil {
		return nil, stageError(i, desc.ID, ErrRetirement, err)
	}

	if wctx.Distributed() {
		logger.Debug("Waiting at barrier.")
		if err := member.Wait(ctx); err != nil {
			return nil, stageError(i, desc.ID, ErrSynchronization, err)
		}
	}

	if wctx.IsLeader() {
		if rec := st.Provenance(); rec != nil {
			if err := e.store.AddProvenance(dest, i, *rec); err != nil {
				return nil, stageError(i, desc.ID, ErrProvenance, err)
			}
			logger.Debug("Recorded provenance.", "path", dest)
		}
	}

	logger.Info("Stage completed.", "duration", time.Since(start))
	return out, nil
}
