package testutil

import "time"

// ExecutionRecord holds the start and end times of one stage's processing
// call on one worker.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}
