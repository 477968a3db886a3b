// Package fieldcorrection applies dark and flat field correction to raw time
// series frames, producing projections.
package fieldcorrection

import (
	"context"
	"fmt"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ID is the chain identifier of this stage.
const ID = "timeseries_field_corrections"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(ID, func() stage.Stage { return New() })
}

// Config holds the dark and flat field levels of the detector.
type Config struct {
	Dark float64 `param:"dark"`
	Flat float64 `param:"flat"`
}

// Stage corrects raw frames with (raw - dark) / (flat - dark).
type Stage struct {
	cfg Config
}

// New returns a stage with a dark level of 0 and a flat level of 1, which
// leaves the data unchanged.
func New() *Stage {
	return &Stage{cfg: Config{Dark: 0, Flat: 1}}
}

func (s *Stage) ID() string { return ID }

func (s *Stage) Configure(params stage.Params) error {
	cfg := Config{Dark: 0, Flat: 1}
	if err := params.Decode(&cfg); err != nil {
		return err
	}
	if cfg.Flat == cfg.Dark {
		return fmt.Errorf("%w: flat and dark levels are both %g", stage.ErrInvalidParams, cfg.Flat)
	}
	s.cfg = cfg
	return nil
}

func (s *Stage) Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error {
	dark := s.cfg.Dark
	scale := 1 / (s.cfg.Flat - dark)
	return stage.MapFrames(ctx, in, out, groupSize, rank, func(_ int, frame []float64) ([]float64, error) {
		for i, v := range frame {
			frame[i] = (v - dark) * scale
		}
		return frame, nil
	})
}

func (s *Stage) RequiredInputKind() dataset.Kind { return dataset.KindRawTimeseries }

// OutputKind implements stage.KindProducer.
func (s *Stage) OutputKind(dataset.Kind) dataset.Kind { return dataset.KindProjection }

func (s *Stage) Provenance() *stage.Provenance {
	return &stage.Provenance{
		Description: fmt.Sprintf("Dark and flat field correction of raw time series frames (dark=%g, flat=%g).", s.cfg.Dark, s.cfg.Flat),
	}
}
