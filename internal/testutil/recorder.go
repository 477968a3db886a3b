package testutil

import (
	"fmt"
	"sync"
)

// Op names an interaction recorded by the fakes in this package.
type Op string

const (
	OpResolve      Op = "resolve"
	OpAllocate     Op = "allocate"
	OpConfigure    Op = "configure"
	OpProcessStart Op = "process_start"
	OpProcess      Op = "process"
	OpRetire       Op = "retire"
	OpWait         Op = "wait"
	OpSave         Op = "save"
	OpProvenance   Op = "provenance"
)

// Event is one recorded interaction.
type Event struct {
	Op    Op
	Rank  int
	Stage string
	Path  string
}

func (e Event) String() string {
	switch {
	case e.Stage != "":
		return fmt.Sprintf("%s:%s", e.Op, e.Stage)
	case e.Path != "":
		return fmt.Sprintf("%s:%s", e.Op, e.Path)
	default:
		return string(e.Op)
	}
}

// Recorder collects events from every fake sharing it, in the order they
// happened.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends e. A nil Recorder drops it.
func (r *Recorder) Record(e Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Trace returns the events of one rank rendered as strings.
func (r *Recorder) Trace(rank int) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Rank == rank {
			out = append(out, e.String())
		}
	}
	return out
}

// Count returns how many events of op were recorded across all ranks.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, e := range r.Events() {
		if e.Op == op {
			n++
		}
	}
	return n
}
