package fieldcorrection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/stage"
	"github.com/specialistvlad/chainrun/internal/testutil"
)

func TestFieldCorrection_Process(t *testing.T) {
	st := New()
	require.NoError(t, st.Configure(stage.Params{"dark": cty.NumberIntVal(10), "flat": cty.NumberIntVal(110)}))

	in := testutil.NewFakeDataset("in.h5", dataset.KindRawTimeseries, dataset.Shape{Frames: 1, Width: 3})
	require.NoError(t, in.SetFrame(0, []float64{10, 60, 110}))
	out := testutil.NewFakeDataset("out.h5", dataset.KindProjection, in.Shape())

	require.NoError(t, st.Process(context.Background(), in, out, 1, 0))
	got, err := out.Frame(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, got, 1e-12)
}

func TestFieldCorrection_Kinds(t *testing.T) {
	st := New()
	assert.Equal(t, dataset.KindRawTimeseries, st.RequiredInputKind())
	assert.Equal(t, dataset.KindProjection, st.OutputKind(dataset.KindRawTimeseries))
	var _ stage.KindProducer = st
}

func TestFieldCorrection_Provenance(t *testing.T) {
	st := New()
	require.NoError(t, st.Configure(stage.Params{"dark": cty.NumberIntVal(2), "flat": cty.NumberIntVal(9)}))

	rec := st.Provenance()
	require.NotNil(t, rec)
	assert.Contains(t, rec.Description, "dark=2")
	assert.Contains(t, rec.Description, "flat=9")
}

func TestFieldCorrection_EqualLevels(t *testing.T) {
	err := New().Configure(stage.Params{"dark": cty.NumberIntVal(3), "flat": cty.NumberIntVal(3)})
	require.ErrorIs(t, err, stage.ErrInvalidParams)
}
