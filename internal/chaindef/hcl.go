package chaindef

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/chainrun/internal/stage"
)

// ErrInvalidChain is returned when a chain file does not describe exactly one
// well-formed chain.
var ErrInvalidChain = errors.New("invalid chain file")

// hclChainFile represents the top-level structure of a chain file for decoding.
type hclChainFile struct {
	Chains     []*hclChain      `hcl:"chain,block"`
	Provenance []*hclProvenance `hcl:"provenance,block"`
}

type hclChain struct {
	Name   string      `hcl:"name,label"`
	RunID  string      `hcl:"run_id,optional"`
	Input  string      `hcl:"input,optional"`
	Stages []*hclStage `hcl:"stage,block"`
}

// hclStage keeps its body raw: the attributes are the stage's parameters and
// their names are only known to the stage itself.
type hclStage struct {
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclProvenance struct {
	StageIndex  int    `hcl:"stage_index"`
	Description string `hcl:"description,optional"`
	DOI         string `hcl:"doi,optional"`
	BibTeX      string `hcl:"bibtex,optional"`
	EndNote     string `hcl:"endnote,optional"`
}

func parseChainFile(path string) (*hclChainFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse chain file %s: %w", path, diags)
	}

	var parsed hclChainFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode chain file %s: %w", path, diags)
	}
	return &parsed, nil
}

// Populate reads the chain definition stored at path.
func Populate(path string) (*Definition, error) {
	parsed, err := parseChainFile(path)
	if err != nil {
		return nil, err
	}
	if len(parsed.Chains) != 1 {
		return nil, fmt.Errorf("%w %s: expected exactly one chain block, found %d", ErrInvalidChain, path, len(parsed.Chains))
	}
	chain := parsed.Chains[0]

	def := &Definition{
		Name:   chain.Name,
		RunID:  chain.RunID,
		Input:  chain.Input,
		Stages: make([]Descriptor, 0, len(chain.Stages)),
	}
	for i, s := range chain.Stages {
		params, diags := parseParams(s.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w %s: stage %d (%s): %w", ErrInvalidChain, path, i, s.ID, diags)
		}
		def.Stages = append(def.Stages, Descriptor{ID: s.ID, Params: params})
	}
	return def, nil
}

// parseParams evaluates every attribute of a stage body. Parameters must be
// literal values, so no evaluation context is provided.
func parseParams(body hcl.Body) (stage.Params, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, diags
	}

	params := make(stage.Params, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		params[name] = val
	}
	return params, diags
}

// ReadProvenance returns the provenance records stored in the chain file at
// path, keyed by stage index.
func ReadProvenance(path string) (map[int]stage.Provenance, error) {
	parsed, err := parseChainFile(path)
	if err != nil {
		return nil, err
	}
	records := make(map[int]stage.Provenance, len(parsed.Provenance))
	for _, p := range parsed.Provenance {
		records[p.StageIndex] = stage.Provenance{
			Description: p.Description,
			DOI:         p.DOI,
			BibTeX:      p.BibTeX,
			EndNote:     p.EndNote,
		}
	}
	return records, nil
}
