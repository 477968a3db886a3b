package app

import (
	"slices"
	"sync"
	"time"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/worker"
)

// Run states reported by Status.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// WorkerStatus is the progress of one worker.
type WorkerStatus struct {
	Rank      int    `json:"rank"`
	Index     int    `json:"index"`
	Stage     string `json:"stage,omitempty"`
	Running   bool   `json:"running"`
	Completed int    `json:"completed"`
}

// Status is a snapshot of the current run, served on /status.
type Status struct {
	RunID   string         `json:"run_id,omitempty"`
	Chain   string         `json:"chain,omitempty"`
	Stages  int            `json:"stages"`
	State   string         `json:"state"`
	Error   string         `json:"error,omitempty"`
	Elapsed string         `json:"elapsed,omitempty"`
	Workers []WorkerStatus `json:"workers"`
}

// tracker follows the workers of a run. It is the executor's observer.
type tracker struct {
	mu       sync.Mutex
	status   Status
	started  time.Time
	finished time.Time
}

func newTracker() *tracker {
	return &tracker{status: Status{State: StateIdle}}
}

func (t *tracker) begin(def *chaindef.Definition, workers int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = time.Now()
	t.finished = time.Time{}
	t.status = Status{
		RunID:   def.RunID,
		Chain:   def.Name,
		Stages:  len(def.Stages),
		State:   StateRunning,
		Workers: make([]WorkerStatus, workers),
	}
	for rank := range t.status.Workers {
		t.status.Workers[rank] = WorkerStatus{Rank: rank, Index: -1}
	}
}

func (t *tracker) StageStarted(wctx worker.Context, index int, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w := t.worker(wctx.Rank); w != nil {
		w.Index = index
		w.Stage = id
		w.Running = true
	}
}

func (t *tracker) StageFinished(wctx worker.Context, index int, id string, _ time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w := t.worker(wctx.Rank); w != nil {
		w.Running = false
		if err == nil {
			w.Completed = index + 1
		}
	}
}

func (t *tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = time.Now()
	t.status.State = StateSucceeded
	if err != nil {
		t.status.State = StateFailed
		t.status.Error = err.Error()
	}
}

func (t *tracker) worker(rank int) *WorkerStatus {
	if rank < 0 || rank >= len(t.status.Workers) {
		return nil
	}
	return &t.status.Workers[rank]
}

func (t *tracker) snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.status
	s.Workers = slices.Clone(t.status.Workers)
	if !t.started.IsZero() {
		end := t.finished
		if end.IsZero() {
			end = time.Now()
		}
		s.Elapsed = end.Sub(t.started).Round(time.Millisecond).String()
	}
	return s
}
