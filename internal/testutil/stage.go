package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/stage"
)

// ProcessCall captures the arguments of one Process call.
type ProcessCall struct {
	In, Out   dataset.Dataset
	GroupSize int
	Rank      int
	ExecutionRecord
}

// StageSpec configures a FakeStage.
type StageSpec struct {
	StageID      string
	InputKind    dataset.Kind
	OutKind      dataset.Kind
	Prov         *stage.Provenance
	ConfigureErr error
	ProcessErr   error
	Delay        time.Duration
}

// FakeStage is a stage.Stage that records its calls and fails on demand.
type FakeStage struct {
	StageSpec

	rec  *Recorder
	rank int

	mu     sync.Mutex
	params stage.Params
	calls  []ProcessCall
}

// NewFakeStage creates a stage that records nothing.
func NewFakeStage(spec StageSpec) *FakeStage {
	return &FakeStage{StageSpec: spec}
}

var _ stage.Stage = (*FakeStage)(nil)

func (s *FakeStage) ID() string { return s.StageID }

func (s *FakeStage) Configure(params stage.Params) error {
	s.rec.Record(Event{Op: OpConfigure, Rank: s.rank, Stage: s.StageID})
	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
	return s.ConfigureErr
}

func (s *FakeStage) Process(ctx context.Context, in, out dataset.Dataset, groupSize, rank int) error {
	s.rec.Record(Event{Op: OpProcessStart, Rank: rank, Stage: s.StageID})
	start := time.Now()
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, ProcessCall{
		In: in, Out: out, GroupSize: groupSize, Rank: rank,
		ExecutionRecord: ExecutionRecord{Start: start, End: time.Now()},
	})
	s.mu.Unlock()

	s.rec.Record(Event{Op: OpProcess, Rank: rank, Stage: s.StageID})
	return s.ProcessErr
}

func (s *FakeStage) RequiredInputKind() dataset.Kind {
	if s.InputKind == "" {
		return dataset.KindAny
	}
	return s.InputKind
}

// OutputKind implements stage.KindProducer when OutKind is set.
func (s *FakeStage) OutputKind(in dataset.Kind) dataset.Kind {
	if s.OutKind == "" {
		return in
	}
	return s.OutKind
}

func (s *FakeStage) Provenance() *stage.Provenance { return s.Prov }

// Params returns the bundle passed to Configure.
func (s *FakeStage) Params() stage.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Calls returns the recorded Process calls.
func (s *FakeStage) Calls() []ProcessCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProcessCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// FakeResolver resolves identifiers to FakeStage instances built from
// specs. Every Resolve returns a new instance.
type FakeResolver struct {
	rec  *Recorder
	rank int

	mu       sync.Mutex
	specs    map[string]StageSpec
	resolved []*FakeStage
}

// NewFakeResolver creates a resolver recording as rank.
func NewFakeResolver(rec *Recorder, rank int) *FakeResolver {
	return &FakeResolver{rec: rec, rank: rank, specs: map[string]StageSpec{}}
}

// Add registers the spec of a stage.
func (r *FakeResolver) Add(spec StageSpec) *FakeResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.StageID] = spec
	return r
}

// AddIDs registers default specs for ids.
func (r *FakeResolver) AddIDs(ids ...string) *FakeResolver {
	for _, id := range ids {
		r.Add(StageSpec{StageID: id})
	}
	return r
}

func (r *FakeResolver) Resolve(id string) (stage.Stage, error) {
	r.rec.Record(Event{Op: OpResolve, Rank: r.rank, Stage: id})
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.specs[id]
	if !ok {
		return nil, fmt.Errorf("no fake stage '%s'", id)
	}
	s := &FakeStage{StageSpec: spec, rec: r.rec, rank: r.rank}
	r.resolved = append(r.resolved, s)
	return s, nil
}

// Resolved returns every instance handed out, in order.
func (r *FakeResolver) Resolved() []*FakeStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FakeStage, len(r.resolved))
	copy(out, r.resolved)
	return out
}
