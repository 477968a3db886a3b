package dataset

import (
	"fmt"
	"sync"
)

// backing is one dataset file shared by every handle opened on its path.
type backing struct {
	path string

	mu    sync.RWMutex
	img   *Image
	dirty bool

	// guarded by Store.mu
	refs   int
	shared bool
}

// Store tracks the backing files that currently have live handles.
type Store struct {
	mu    sync.Mutex
	files map[string]*backing
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		files: make(map[string]*backing),
	}
}

// Open returns a new handle on an existing dataset file. Handles opened on a
// path that is already live share its backing file.
func (s *Store) Open(path string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.files[path]; ok {
		b.refs++
		return newHandle(s, b), nil
	}

	img, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	b := &backing{path: path, img: img, refs: 1, shared: true}
	s.files[path] = b
	return newHandle(s, b), nil
}

// Create makes a new zero-filled dataset at path and returns a handle on it.
// With shared set, later Create calls for the same live path attach to the
// existing backing file instead of failing, which is how the workers of a
// group obtain handles on one output.
func (s *Store) Create(path string, spec Spec, shared bool) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.files[path]; ok {
		if !shared || !b.shared {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
		if b.img.Shape != spec.Shape || b.img.Kind != spec.Kind {
			return nil, fmt.Errorf("%w: %s is open as %s %s, requested %s %s",
				ErrExists, path, b.img.Kind, b.img.Shape, spec.Kind, spec.Shape)
		}
		b.refs++
		return newHandle(s, b), nil
	}

	img, err := NewImage(spec)
	if err != nil {
		return nil, err
	}
	// Write the empty file up front so an unwritable location fails here
	// rather than when the last handle is retired.
	if err := WriteFile(path, img); err != nil {
		return nil, err
	}

	b := &backing{path: path, img: img, refs: 1, shared: shared, dirty: true}
	s.files[path] = b
	return newHandle(s, b), nil
}

// Live reports how many handles are open on path.
func (s *Store) Live(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.files[path]; ok {
		return b.refs
	}
	return 0
}

// release drops one reference and flushes the backing file after the last one.
func (s *Store) release(b *backing) error {
	s.mu.Lock()
	b.refs--
	if b.refs > 0 {
		s.mu.Unlock()
		return nil
	}
	delete(s.files, b.path)
	s.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	if err := WriteFile(b.path, b.img); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

// Handle is one worker's view of a dataset.
type Handle struct {
	store *Store
	b     *backing

	mu      sync.Mutex
	retired bool
}

var _ Dataset = (*Handle)(nil)

func newHandle(s *Store, b *backing) *Handle {
	return &Handle{store: s, b: b}
}

func (h *Handle) Path() string { return h.b.path }

func (h *Handle) Kind() Kind {
	h.b.mu.RLock()
	defer h.b.mu.RUnlock()
	return h.b.img.Kind
}

func (h *Handle) Shape() Shape {
	h.b.mu.RLock()
	defer h.b.mu.RUnlock()
	return h.b.img.Shape
}

// Metadata returns a copy of the dataset metadata.
func (h *Handle) Metadata() map[string]string {
	h.b.mu.RLock()
	defer h.b.mu.RUnlock()
	return copyMetadata(h.b.img.Metadata)
}

// Frame returns a copy of frame i.
func (h *Handle) Frame(i int) ([]float64, error) {
	if h.Retired() {
		return nil, fmt.Errorf("%w: %s", ErrRetired, h.b.path)
	}
	h.b.mu.RLock()
	defer h.b.mu.RUnlock()
	if i < 0 || i >= len(h.b.img.Frames) {
		return nil, fmt.Errorf("%w: frame %d out of range [0,%d)", ErrShape, i, len(h.b.img.Frames))
	}
	out := make([]float64, len(h.b.img.Frames[i]))
	copy(out, h.b.img.Frames[i])
	return out, nil
}

// SetFrame overwrites frame i.
func (h *Handle) SetFrame(i int, data []float64) error {
	if h.Retired() {
		return fmt.Errorf("%w: %s", ErrRetired, h.b.path)
	}
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if i < 0 || i >= len(h.b.img.Frames) {
		return fmt.Errorf("%w: frame %d out of range [0,%d)", ErrShape, i, len(h.b.img.Frames))
	}
	if len(data) != h.b.img.Shape.Width {
		return fmt.Errorf("%w: frame width %d, want %d", ErrShape, len(data), h.b.img.Shape.Width)
	}
	copy(h.b.img.Frames[i], data)
	h.b.dirty = true
	return nil
}

// Complete retires the handle. The backing file is written to disk once
// every handle on it has been retired.
func (h *Handle) Complete() error {
	h.mu.Lock()
	if h.retired {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRetired, h.b.path)
	}
	h.retired = true
	h.mu.Unlock()

	return h.store.release(h.b)
}

func (h *Handle) Retired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retired
}
