// Package clip limits every value of a dataset to a closed interval.
package clip

import (
	"context"
	"fmt"
	"math"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ID is the chain identifier of this stage.
const ID = "clip"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(ID, func() stage.Stage { return New() })
}

// Config holds the stage parameters. An unset bound does not clip.
type Config struct {
	Min float64 `param:"min"`
	Max float64 `param:"max"`
}

func defaults() Config {
	return Config{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Stage clips frames.
type Stage struct {
	cfg Config
}

// New returns a stage that clips nothing until configured.
func New() *Stage {
	return &Stage{cfg: defaults()}
}

func (s *Stage) ID() string { return ID }

func (s *Stage) Configure(params stage.Params) error {
	cfg := defaults()
	if err := params.Decode(&cfg); err != nil {
		return err
	}
	if cfg.Min > cfg.Max {
		return fmt.Errorf("%w: min %g is greater than max %g", stage.ErrInvalidParams, cfg.Min, cfg.Max)
	}
	s.cfg = cfg
	return nil
}

func (s *Stage) Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error {
	lo, hi := s.cfg.Min, s.cfg.Max
	return stage.MapFrames(ctx, in, out, groupSize, rank, func(_ int, frame []float64) ([]float64, error) {
		for i, v := range frame {
			frame[i] = min(max(v, lo), hi)
		}
		return frame, nil
	})
}

func (s *Stage) RequiredInputKind() dataset.Kind { return dataset.KindAny }

func (s *Stage) Provenance() *stage.Provenance { return nil }
