// Package normalise scales a dataset so that its largest magnitude is 1.
//
// Every worker reads the whole input to find the global maximum, then writes
// only the frames it owns. This relies on the previous stage having finished
// on every worker, which the executor's barrier guarantees.
package normalise

import (
	"context"
	"fmt"
	"math"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ID is the chain identifier of this stage.
const ID = "normalise"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(ID, func() stage.Stage { return New() })
}

// Stage normalises frames. It takes no parameters.
type Stage struct{}

// New returns a normalise stage.
func New() *Stage {
	return &Stage{}
}

func (s *Stage) ID() string { return ID }

func (s *Stage) Configure(params stage.Params) error {
	return params.Decode(&struct{}{})
}

func (s *Stage) Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error {
	peak, err := globalPeak(ctx, in)
	if err != nil {
		return err
	}
	divisor := peak
	if divisor == 0 {
		divisor = 1
	}
	return stage.MapFrames(ctx, in, out, groupSize, rank, func(_ int, frame []float64) ([]float64, error) {
		for i := range frame {
			frame[i] /= divisor
		}
		return frame, nil
	})
}

// globalPeak returns the largest absolute value over every frame of ds.
func globalPeak(ctx context.Context, ds dataset.Dataset) (float64, error) {
	var peak float64
	for i := 0; i < ds.Shape().Frames; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame, err := ds.Frame(i)
		if err != nil {
			return 0, fmt.Errorf("frame %d: %w", i, err)
		}
		for _, v := range frame {
			peak = math.Max(peak, math.Abs(v))
		}
	}
	return peak, nil
}

func (s *Stage) RequiredInputKind() dataset.Kind { return dataset.KindAny }

func (s *Stage) Provenance() *stage.Provenance { return nil }
