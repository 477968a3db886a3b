// Package stage defines the capability set every processing stage in a chain
// exposes to the executor, and the helpers stages use to read their
// parameters.
package stage

import (
	"context"

	"github.com/specialistvlad/chainrun/internal/dataset"
)

// Stage is one unit of processing in a chain.
//
// The executor calls Configure once, then Process once, on a freshly
// resolved instance. Process receives the worker group size and this
// worker's rank; a stage must only write the output frames it owns and must
// not keep references to either dataset after Process returns.
type Stage interface {
	ID() string
	Configure(params Params) error
	Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error
	RequiredInputKind() dataset.Kind
	// Provenance returns the attribution record for this stage, or nil.
	Provenance() *Provenance
}

// KindProducer is implemented by stages whose output kind differs from their
// input kind.
type KindProducer interface {
	OutputKind(in dataset.Kind) dataset.Kind
}

// Shaper is implemented by stages whose output shape differs from their
// input shape.
type Shaper interface {
	OutputShape(in dataset.Shape) dataset.Shape
}

// Provenance is citation and attribution metadata a stage contributes.
type Provenance struct {
	Description string
	DOI         string
	BibTeX      string
	EndNote     string
}
