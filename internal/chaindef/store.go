package chaindef

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/chainrun/internal/fsutil"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// Store persists chain definitions and their provenance records as HCL files.
// It is safe for concurrent use; writes to the same destination are
// serialised.
type Store struct {
	mu sync.Mutex
}

// NewStore returns a Store.
func NewStore() *Store {
	return &Store{}
}

// Populate reads the chain definition stored at path.
func (s *Store) Populate(path string) (*Definition, error) {
	return Populate(path)
}

// Save writes def to dest, replacing any existing file and the provenance it
// held.
func (s *Store) Save(def *Definition, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := hclwrite.NewEmptyFile()
	chain := f.Body().AppendNewBlock("chain", []string{def.Name}).Body()
	if def.RunID != "" {
		chain.SetAttributeValue("run_id", cty.StringVal(def.RunID))
	}
	if def.Input != "" {
		chain.SetAttributeValue("input", cty.StringVal(def.Input))
	}

	for _, d := range def.Stages {
		chain.AppendNewline()
		body := chain.AppendNewBlock("stage", []string{d.ID}).Body()
		for _, name := range d.Params.Names() {
			body.SetAttributeValue(name, d.Params[name])
		}
	}

	if err := fsutil.WriteFileAtomic(dest, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save chain definition to %s: %w", dest, err)
	}
	return nil
}

// AddProvenance appends the provenance record of the stage at index to the
// chain file at dest. A record already present for index is left untouched.
func (s *Store) AddProvenance(dest string, index int, rec stage.Provenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := ReadProvenance(dest)
	if err != nil {
		return err
	}
	if _, ok := existing[index]; ok {
		return nil
	}

	src, err := os.ReadFile(dest)
	if err != nil {
		return fmt.Errorf("failed to read chain file %s: %w", dest, err)
	}
	f, diags := hclwrite.ParseConfig(src, dest, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse chain file %s: %w", dest, diags)
	}

	root := f.Body()
	root.AppendNewline()
	body := root.AppendNewBlock("provenance", nil).Body()
	body.SetAttributeValue("stage_index", cty.NumberIntVal(int64(index)))
	for _, attr := range provenanceAttrs(rec) {
		body.SetAttributeValue(attr.name, cty.StringVal(attr.value))
	}

	if err := fsutil.WriteFileAtomic(dest, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write provenance to %s: %w", dest, err)
	}
	return nil
}

type provenanceAttr struct {
	name  string
	value string
}

// provenanceAttrs lists the non-empty fields of rec in a stable order.
func provenanceAttrs(rec stage.Provenance) []provenanceAttr {
	all := []provenanceAttr{
		{"description", rec.Description},
		{"doi", rec.DOI},
		{"bibtex", rec.BibTeX},
		{"endnote", rec.EndNote},
	}
	out := all[:0]
	for _, a := range all {
		if a.value != "" {
			out = append(out, a)
		}
	}
	return out
}
