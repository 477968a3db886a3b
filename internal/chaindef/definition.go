// Package chaindef holds the chain definition model and the HCL chain file
// that persists it.
//
// A chain file carries one `chain` block with the ordered `stage` blocks of a
// run, and zero or more `provenance` blocks that are appended while the run
// progresses:
//
//	chain "run_" {
//	  run_id = "5e0f..."
//
//	  stage "timeseries_field_corrections" {
//	    dark = 10
//	    flat = 1000
//	  }
//	  stage "scale" {
//	    factor = 2
//	  }
//	}
//
//	provenance {
//	  stage_index = 0
//	  description = "..."
//	}
//
// The same format is used for the chain a user hands to the CLI and for the
// copy saved next to the outputs, so a saved file can be fed back in to
// repeat the run.
package chaindef

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/chainrun/internal/stage"
)

// ProvenanceSuffix is appended to the input's base name to name the saved
// chain file of a run.
const ProvenanceSuffix = "_processed.hcl"

// Descriptor identifies one stage of a chain and its parameters.
type Descriptor struct {
	ID     string
	Params stage.Params
}

// Definition is the ordered list of stages of a run.
type Definition struct {
	// Name prefixes every per-stage output file.
	Name string
	// RunID and Input are recorded when the definition is saved for a run.
	RunID  string
	Input  string
	Stages []Descriptor
}

// Destination returns the path of the saved chain file for a run over
// inputPath whose outputs go to outDir.
func Destination(outDir, inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+ProvenanceSuffix)
}
