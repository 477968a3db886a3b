package testutil

import (
	"fmt"
	"maps"
	"sync"

	"github.com/specialistvlad/chainrun/internal/dataset"
)

// FakeDataset is an in-memory dataset.Dataset that counts its retirements.
type FakeDataset struct {
	path  string
	kind  dataset.Kind
	shape dataset.Shape
	meta  map[string]string

	rec  *Recorder
	rank int

	mu        sync.Mutex
	frames    [][]float64
	completes int
}

var _ dataset.Dataset = (*FakeDataset)(nil)

// NewFakeDataset creates a zero-filled fake dataset.
func NewFakeDataset(path string, kind dataset.Kind, shape dataset.Shape) *FakeDataset {
	frames := make([][]float64, shape.Frames)
	for i := range frames {
		frames[i] = make([]float64, shape.Width)
	}
	return &FakeDataset{
		path:   path,
		kind:   kind,
		shape:  shape,
		meta:   map[string]string{},
		frames: frames,
	}
}

// WithRecorder makes the dataset record its retirements as rank.
func (d *FakeDataset) WithRecorder(rec *Recorder, rank int) *FakeDataset {
	d.rec = rec
	d.rank = rank
	return d
}

func (d *FakeDataset) Path() string { return d.path }
func (d *FakeDataset) Kind() dataset.Kind { return d.kind }
func (d *FakeDataset) Shape() dataset.Shape { return d.shape }

func (d *FakeDataset) Metadata() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.meta)
}

func (d *FakeDataset) Frame(i int) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.completes > 0 {
		return nil, fmt.Errorf("%w: %s", dataset.ErrRetired, d.path)
	}
	if i < 0 || i >= len(d.frames) {
		return nil, fmt.Errorf("%w: frame %d", dataset.ErrShape, i)
	}
	out := make([]float64, len(d.frames[i]))
	copy(out, d.frames[i])
	return out, nil
}

func (d *FakeDataset) SetFrame(i int, data []float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.completes > 0 {
		return fmt.Errorf("%w: %s", dataset.ErrRetired, d.path)
	}
	if i < 0 || i >= len(d.frames) || len(data) != d.shape.Width {
		return fmt.Errorf("%w: frame %d", dataset.ErrShape, i)
	}
	copy(d.frames[i], data)
	return nil
}

// Complete counts every call, including invalid repeated ones.
func (d *FakeDataset) Complete() error {
	d.mu.Lock()
	d.completes++
	n := d.completes
	d.mu.Unlock()

	d.rec.Record(Event{Op: OpRetire, Rank: d.rank, Path: d.path})
	if n > 1 {
		return fmt.Errorf("%w: %s", dataset.ErrRetired, d.path)
	}
	return nil
}

func (d *FakeDataset) Retired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completes > 0
}

// Completes returns how many times Complete was called.
func (d *FakeDataset) Completes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completes
}
