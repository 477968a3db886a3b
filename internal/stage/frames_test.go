package stage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/chainrun/internal/dataset"
)

func TestMapFramesWritesOnlyOwnedFrames(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.h5")
	require.NoError(t, dataset.WriteFile(inPath, &dataset.Image{
		Kind:   dataset.KindProjection,
		Shape:  dataset.Shape{Frames: 4, Width: 1},
		Frames: [][]float64{{1}, {2}, {3}, {4}},
	}))

	store := dataset.NewStore()
	in, err := store.Open(inPath)
	require.NoError(t, err)
	out, err := store.Create(filepath.Join(dir, "out.h5"), dataset.Spec{Kind: dataset.KindProjection, Shape: in.Shape()}, true)
	require.NoError(t, err)

	var visited []int
	err = MapFrames(context.Background(), in, out, 2, 1, func(i int, frame []float64) ([]float64, error) {
		visited = append(visited, i)
		return []float64{frame[0] * 10}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, visited)

	for i, want := range []float64{0, 0, 30, 40} {
		got, err := out.Frame(i)
		require.NoError(t, err)
		assert.Equal(t, []float64{want}, got)
	}
}

func TestMapFramesStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.h5")
	require.NoError(t, dataset.WriteFile(inPath, &dataset.Image{
		Shape:  dataset.Shape{Frames: 1, Width: 1},
		Frames: [][]float64{{1}},
	}))
	store := dataset.NewStore()
	in, err := store.Open(inPath)
	require.NoError(t, err)
	out, err := store.Create(filepath.Join(dir, "out.h5"), dataset.Spec{Shape: in.Shape()}, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = MapFrames(ctx, in, out, 1, 0, func(i int, frame []float64) ([]float64, error) {
		return frame, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
