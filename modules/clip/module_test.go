package clip

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

func TestClip_Process(t *testing.T) {
	testCases := []struct {
		name   string
		params stage.Params
		want   []float64
	}{
		{name: "both bounds", params: stage.Params{"min": cty.NumberIntVal(0), "max": cty.NumberIntVal(10)}, want: []float64{0, 5, 10}},
		{name: "lower bound only", params: stage.Params{"min": cty.NumberIntVal(0)}, want: []float64{0, 5, 50}},
		{name: "no bounds", params: nil, want: []float64{-3, 5, 50}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := New()
			require.NoError(t, st.Configure(tc.params))

			in := testutil.NewFakeDataset("in.h5", dataset.KindVolume, dataset.Shape{Frames: 1, Width: 3})
			require.NoError(t, in.SetFrame(0, []float64{-3, 5, 50}))
			out := testutil.NewFakeDataset("out.h5", dataset.KindVolume, in.Shape())

			require.NoError(t, st.Process(context.Background(), in, out, 1, 0))
			got, err := out.Frame(0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClip_InvertedBounds(t *testing.T) {
	err := New().Configure(stage.Params{"min": cty.NumberIntVal(5), "max": cty.NumberIntVal(1)})
	require.ErrorIs(t, err, stage.ErrInvalidParams)
}

func TestClip_WrongType(t *testing.T) {
	err := New().Configure(stage.Params{"min": cty.StringVal("low")})
	require.ErrorIs(t, err, stage.ErrInvalidParams)
}
