package dataset

import (
	"errors"
	"fmt"
	"maps"
)

var (
	// ErrRetired is returned when a retired handle is used or retired again.
	ErrRetired = errors.New("dataset is retired")
	// ErrExists is returned when creating a dataset whose path is already open
	// and the caller did not ask for a shared dataset.
	ErrExists = errors.New("dataset already open")
	// ErrShape is returned for out-of-range frame indices and frames of the
	// wrong width.
	ErrShape = errors.New("frame does not match dataset shape")
)

// Kind names the layout of the data held by a dataset.
type Kind string

const (
	KindAny           Kind = "any"
	KindRawTimeseries Kind = "raw_timeseries"
	KindProjection    Kind = "projection"
	KindVolume        Kind = "volume"
)

// Accepts reports whether data of kind other satisfies a requirement of k.
func (k Kind) Accepts(other Kind) bool {
	return k == KindAny || k == "" || k == other
}

// Shape is the frame layout of a dataset.
type Shape struct {
	Frames int `msgpack:"frames"`
	Width  int `msgpack:"width"`
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Frames, s.Width)
}

// Spec describes a dataset to be created.
type Spec struct {
	Kind     Kind
	Shape    Shape
	Metadata map[string]string
}

// Dataset is a handle to a backing store holding frames and metadata.
// A handle is either live or retired; once retired it must not be used again.
type Dataset interface {
	Path() string
	Kind() Kind
	Shape() Shape
	Metadata() map[string]string
	Frame(i int) ([]float64, error)
	SetFrame(i int, data []float64) error
	// Complete retires the handle. It must be called exactly once.
	Complete() error
	Retired() bool
}

func copyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	maps.Copy(out, md)
	return out
}
