package stage

import (
	"context"
	"fmt"

	"github.com/specialistvlad/chainrun/internal/dataset"
)

// FrameFunc transforms one input frame into the matching output frame.
type FrameFunc func(index int, frame []float64) ([]float64, error)

// MapFrames applies fn to every frame this rank owns, reading from in and
// writing the result at the same index in out.
func MapFrames(ctx context.Context, in, out dataset.Dataset, groupSize, rank int, fn FrameFunc) error {
	start, end := dataset.Partition(in.Shape().Frames, groupSize, rank)
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frame, err := in.Frame(i)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		result, err := fn(i, frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := out.SetFrame(i, result); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}
