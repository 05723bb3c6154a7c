package scheduler

import "sync"

// Snapshot is a point-in-time view of a batch
type Snapshot struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Done reports whether every chunk has resolved.
func (s Snapshot) Done() bool {
	return s.Completed >= s.Total
}

// Tracker counts completed chunks for UI and telemetry.
// It is safe for concurrent use; the callback runs under the tracker lock so
// observers see counts in order.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	onUpdate  ProgressFunc
}

// NewTracker creates a tracker. onUpdate may be nil.
func NewTracker(onUpdate ProgressFunc) *Tracker {
	return &Tracker{onUpdate: onUpdate}
}

func (t *Tracker) reset(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.completed = 0
	t.failed = 0
	if t.onUpdate != nil {
		t.onUpdate(0, total)
	}
}

func (t *Tracker) complete(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	if !ok {
		t.failed++
	}
	if t.onUpdate != nil {
		t.onUpdate(t.completed, t.total)
	}
}

// Snapshot returns the current counts
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Total: t.total, Completed: t.completed, Failed: t.failed}
}
