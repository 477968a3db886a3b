package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/stage"
	"github.com/specialistvlad/chainrun/internal/worker"
)

// FakeAllocator hands out FakeDatasets shaped like the input.
type FakeAllocator struct {
	rec  *Recorder
	rank int

	// Errs fails the allocation for the stage ids it names.
	Errs map[string]error

	mu          sync.Mutex
	allocated   []*FakeDataset
	distributed []bool
}

// NewFakeAllocator creates an allocator recording as rank.
func NewFakeAllocator(rec *Recorder, rank int) *FakeAllocator {
	return &FakeAllocator{rec: rec, rank: rank, Errs: map[string]error{}}
}

func (a *FakeAllocator) Allocate(_ context.Context, st stage.Stage, in dataset.Dataset, path string, distributed bool) (dataset.Dataset, error) {
	a.rec.Record(Event{Op: OpAllocate, Rank: a.rank, Stage: st.ID()})
	if err := a.Errs[st.ID()]; err != nil {
		return nil, err
	}
	kind := in.Kind()
	if kp, ok := st.(stage.KindProducer); ok {
		kind = kp.OutputKind(kind)
	}
	out := NewFakeDataset(path, kind, in.Shape()).WithRecorder(a.rec, a.rank)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocated = append(a.allocated, out)
	a.distributed = append(a.distributed, distributed)
	return out, nil
}

// Allocated returns the datasets handed out, in order.
func (a *FakeAllocator) Allocated() []*FakeDataset {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*FakeDataset, len(a.allocated))
	copy(out, a.allocated)
	return out
}

// Distributed returns the distributed flag of every allocation, in order.
func (a *FakeAllocator) Distributed() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]bool, len(a.distributed))
	copy(out, a.distributed)
	return out
}

// SavedDefinition is one recorded Save call.
type SavedDefinition struct {
	Dest string
	Def  *chaindef.Definition
}

// ProvenanceEntry is one recorded AddProvenance call.
type ProvenanceEntry struct {
	Dest   string
	Index  int
	Record stage.Provenance
}

// FakeDefinitionStore records saves and provenance appends in memory.
type FakeDefinitionStore struct {
	rec *Recorder

	SaveErr       error
	ProvenanceErr error

	mu         sync.Mutex
	saved      []SavedDefinition
	provenance []ProvenanceEntry
}

// NewFakeDefinitionStore creates an empty store.
func NewFakeDefinitionStore(rec *Recorder) *FakeDefinitionStore {
	return &FakeDefinitionStore{rec: rec}
}

func (s *FakeDefinitionStore) Save(def *chaindef.Definition, dest string) error {
	s.rec.Record(Event{Op: OpSave, Path: dest})
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, SavedDefinition{Dest: dest, Def: def})
	return nil
}

func (s *FakeDefinitionStore) AddProvenance(dest string, index int, rec stage.Provenance) error {
	s.rec.Record(Event{Op: OpProvenance, Path: dest})
	if s.ProvenanceErr != nil {
		return s.ProvenanceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provenance = append(s.provenance, ProvenanceEntry{Dest: dest, Index: index, Record: rec})
	return nil
}

// Saved returns the recorded saves.
func (s *FakeDefinitionStore) Saved() []SavedDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedDefinition, len(s.saved))
	copy(out, s.saved)
	return out
}

// Provenance returns the recorded provenance appends.
func (s *FakeDefinitionStore) Provenance() []ProvenanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProvenanceEntry, len(s.provenance))
	copy(out, s.provenance)
	return out
}

// CountingMember wraps a worker.Member and counts barrier calls.
type CountingMember struct {
	worker.Member
	rec *Recorder

	// Err, when set, is returned by Wait without reaching the barrier.
	Err error

	waits atomic.Int32
}

// NewCountingMember wraps m.
func NewCountingMember(m worker.Member, rec *Recorder) *CountingMember {
	return &CountingMember{Member: m, rec: rec}
}

// FakeMember returns a counting member with the given context whose barrier
// returns immediately.
func FakeMember(wctx worker.Context, rec *Recorder) *CountingMember {
	return NewCountingMember(fixedMember{wctx: wctx}, rec)
}

func (m *CountingMember) Wait(ctx context.Context) error {
	m.waits.Add(1)
	m.rec.Record(Event{Op: OpWait, Rank: m.Context().Rank})
	if m.Err != nil {
		return m.Err
	}
	return m.Member.Wait(ctx)
}

// Waits returns how many times Wait was called.
func (m *CountingMember) Waits() int {
	return int(m.waits.Load())
}

type fixedMember struct {
	wctx worker.Context
}

func (m fixedMember) Context() worker.Context { return m.wctx }
func (fixedMember) Wait(context.Context) error { return nil }
