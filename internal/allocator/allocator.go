// Package allocator creates the output dataset of a stage before it runs.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/chainrun/internal/ctxlog"
	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ErrKindMismatch is returned when the input dataset is not of the kind the
// stage requires.
var ErrKindMismatch = errors.New("input kind not accepted by stage")

// ErrOverwritesInput is returned when a stage output would be written to the
// file its input is read from.
var ErrOverwritesInput = errors.New("output path is the input path")

// MetadataStage is the metadata key recording which stage produced a dataset.
const MetadataStage = "stage"

// Allocator allocates stage outputs in a dataset store.
type Allocator struct {
	store *dataset.Store
}

// New returns an Allocator creating datasets in store.
func New(store *dataset.Store) *Allocator {
	return &Allocator{store: store}
}

// Allocate creates the output dataset of st at path. The output inherits the
// input's metadata; its kind and shape follow the input unless the stage
// reports its own. With distributed set every worker of a group calls
// Allocate for the same path and each receives its own handle on one shared
// dataset.
func (a *Allocator) Allocate(ctx context.Context, st stage.Stage, in dataset.Dataset, path string, distributed bool) (dataset.Dataset, error) {
	required := st.RequiredInputKind()
	if !required.Accepts(in.Kind()) {
		return nil, fmt.Errorf("%w: stage '%s' requires %s, input %s is %s",
			ErrKindMismatch, st.ID(), required, in.Path(), in.Kind())
	}

	if samePath(path, in.Path()) {
		return nil, fmt.Errorf("%w: stage '%s' cannot write %s while reading it; choose another output directory",
			ErrOverwritesInput, st.ID(), path)
	}

	spec := dataset.Spec{
		Kind:     in.Kind(),
		Shape:    in.Shape(),
		Metadata: in.Metadata(),
	}
	if kp, ok := st.(stage.KindProducer); ok {
		spec.Kind = kp.OutputKind(in.Kind())
	}
	if sh, ok := st.(stage.Shaper); ok {
		spec.Shape = sh.OutputShape(in.Shape())
	}
	if spec.Metadata == nil {
		spec.Metadata = map[string]string{}
	}
	spec.Metadata[MetadataStage] = st.ID()

	out, err := a.store.Create(path, spec, distributed)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate output of stage '%s': %w", st.ID(), err)
	}

	ctxlog.FromContext(ctx).Debug("Allocated stage output.",
		"stage", st.ID(), "path", path, "kind", spec.Kind, "shape", spec.Shape.String(), "distributed", distributed)
	return out, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
