// Package scale multiplies every value of a dataset by a constant factor.
package scale

import (
	"context"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ID is the chain identifier of this stage.
const ID = "scale"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(ID, func() stage.Stage { return New() })
}

// Config holds the stage parameters.
type Config struct {
	Factor float64 `param:"factor"`
}

// Stage scales frames.
type Stage struct {
	cfg Config
}

// New returns a stage with the default factor of 1.
func New() *Stage {
	return &Stage{cfg: Config{Factor: 1}}
}

func (s *Stage) ID() string { return ID }

func (s *Stage) Configure(params stage.Params) error {
	cfg := Config{Factor: 1}
	if err := params.Decode(&cfg); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

func (s *Stage) Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error {
	factor := s.cfg.Factor
	return stage.MapFrames(ctx, in, out, groupSize, rank, func(_ int, frame []float64) ([]float64, error) {
		for i := range frame {
			frame[i] *= factor
		}
		return frame, nil
	})
}

func (s *Stage) RequiredInputKind() dataset.Kind { return dataset.KindAny }

func (s *Stage) Provenance() *stage.Provenance { return nil }
