package chaindef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/chainrun/internal/stage"
)

func writeChain(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPopulate_ReadsStagesInOrder(t *testing.T) {
	path := writeChain(t, `
chain "run_" {
  stage "timeseries_field_corrections" {
    dark = 10
    flat = 1000
  }
  stage "scale" {
    factor = 2.5
  }
  stage "normalise" {}
}
`)

	def, err := Populate(path)
	require.NoError(t, err)

	assert.Equal(t, "run_", def.Name)
	require.Len(t, def.Stages, 3)
	ids := []string{def.Stages[0].ID, def.Stages[1].ID, def.Stages[2].ID}
	assert.Equal(t, []string{"timeseries_field_corrections", "scale", "normalise"}, ids)

	assert.Equal(t, []string{"dark", "flat"}, def.Stages[0].Params.Names())
	assert.True(t, def.Stages[1].Params["factor"].RawEquals(cty.NumberFloatVal(2.5)))
	assert.Empty(t, def.Stages[2].Params)
}

func TestPopulate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "no chain block", content: `provenance { stage_index = 0 }`},
		{name: "two chain blocks", content: "chain \"a\" {}\nchain \"b\" {}\n"},
		{name: "syntax error", content: `chain "a" {`},
		{name: "non literal param", content: "chain \"a\" {\n  stage \"scale\" {\n    factor = var.x\n  }\n}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Populate(writeChain(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestPopulate_MissingFile(t *testing.T) {
	_, err := Populate(filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_SaveRoundTrip(t *testing.T) {
	store := NewStore()
	dest := filepath.Join(t.TempDir(), "input"+ProvenanceSuffix)
	def := &Definition{
		Name:  "run_",
		RunID: "d4c1f2",
		Input: "/data/input.h5",
		Stages: []Descriptor{
			{ID: "clip", Params: stage.Params{"min": cty.NumberIntVal(0), "max": cty.NumberIntVal(100)}},
			{ID: "scale", Params: stage.Params{"factor": cty.NumberFloatVal(0.5)}},
			{ID: "normalise"},
		},
	}

	require.NoError(t, store.Save(def, dest))

	got, err := store.Populate(dest)
	require.NoError(t, err)

	opts := cmp.Comparer(func(a, b cty.Value) bool { return a.Equals(b).True() })
	if diff := cmp.Diff(def, got, opts); diff != "" {
		t.Errorf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AddProvenance(t *testing.T) {
	store := NewStore()
	dest := filepath.Join(t.TempDir(), "input"+ProvenanceSuffix)
	def := &Definition{Name: "run_", Stages: []Descriptor{{ID: "a"}, {ID: "b"}}}
	require.NoError(t, store.Save(def, dest))

	first := stage.Provenance{Description: "dark and flat correction", DOI: "10.1000/xyz"}
	require.NoError(t, store.AddProvenance(dest, 1, first))

	// A second record for the same index is ignored.
	require.NoError(t, store.AddProvenance(dest, 1, stage.Provenance{Description: "other"}))
	require.NoError(t, store.AddProvenance(dest, 0, stage.Provenance{BibTeX: "@article{x}"}))

	records, err := ReadProvenance(dest)
	require.NoError(t, err)
	want := map[int]stage.Provenance{
		0: {BibTeX: "@article{x}"},
		1: first,
	}
	assert.Equal(t, want, records)

	// The chain itself survives the appends.
	got, err := store.Populate(dest)
	require.NoError(t, err)
	require.Len(t, got.Stages, 2)
}

func TestStore_SaveDropsOldProvenance(t *testing.T) {
	store := NewStore()
	dest := filepath.Join(t.TempDir(), "x"+ProvenanceSuffix)
	def := &Definition{Name: "run_", Stages: []Descriptor{{ID: "a"}}}

	require.NoError(t, store.Save(def, dest))
	require.NoError(t, store.AddProvenance(dest, 0, stage.Provenance{Description: "d"}))
	require.NoError(t, store.Save(def, dest))

	records, err := ReadProvenance(dest)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_AddProvenanceMissingFile(t *testing.T) {
	err := NewStore().AddProvenance(filepath.Join(t.TempDir(), "nope.hcl"), 0, stage.Provenance{})
	require.Error(t, err)
}

func TestDestination(t *testing.T) {
	assert.Equal(t, filepath.Join("/out", "scan_042_processed.hcl"), Destination("/out", "/data/scan_042.h5"))
	assert.Equal(t, filepath.Join("out", "raw_processed.hcl"), Destination("out", "raw"))
}
