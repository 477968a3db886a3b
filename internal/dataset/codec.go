package dataset

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/specialistvlad/chainrun/internal/fsutil"
)

// Image is the on-disk representation of a dataset.
type Image struct {
	Kind     Kind              `msgpack:"kind"`
	Shape    Shape             `msgpack:"shape"`
	Metadata map[string]string `msgpack:"metadata"`
	Frames   [][]float64       `msgpack:"frames"`
}

// NewImage returns a zero-filled image for the given spec.
func NewImage(spec Spec) (*Image, error) {
	if spec.Shape.Frames < 0 || spec.Shape.Width < 0 {
		return nil, fmt.Errorf("%w: negative shape %s", ErrShape, spec.Shape)
	}
	frames := make([][]float64, spec.Shape.Frames)
	for i := range frames {
		frames[i] = make([]float64, spec.Shape.Width)
	}
	return &Image{
		Kind:     spec.Kind,
		Shape:    spec.Shape,
		Metadata: copyMetadata(spec.Metadata),
		Frames:   frames,
	}, nil
}

func (img *Image) validate() error {
	if len(img.Frames) != img.Shape.Frames {
		return fmt.Errorf("%w: header declares %d frames, found %d", ErrShape, img.Shape.Frames, len(img.Frames))
	}
	for i, f := range img.Frames {
		if len(f) != img.Shape.Width {
			return fmt.Errorf("%w: frame %d has width %d, want %d", ErrShape, i, len(f), img.Shape.Width)
		}
	}
	return nil
}

// ReadFile loads a dataset image from disk.
func ReadFile(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	var img Image
	if err := msgpack.Unmarshal(raw, &img); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", path, err)
	}
	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset %s: %w", path, err)
	}
	if img.Metadata == nil {
		img.Metadata = map[string]string{}
	}
	return &img, nil
}

// WriteFile stores a dataset image on disk. The file is replaced atomically.
func WriteFile(path string, img *Image) error {
	if err := img.validate(); err != nil {
		return fmt.Errorf("refusing to write dataset %s: %w", path, err)
	}
	raw, err := msgpack.Marshal(img)
	if err != nil {
		return fmt.Errorf("failed to encode dataset %s: %w", path, err)
	}

	if err := fsutil.WriteFileAtomic(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset %s: %w", path, err)
	}
	return nil
}
