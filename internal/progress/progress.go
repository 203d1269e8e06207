package progress

import "sync"

// Status of an import job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Snapshot is the poller-facing view of one job.
type Snapshot struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Status    Status `json:"status"`
}

// Tracker is a thread-safe map of job id to import progress, polled by the
// HTTP layer while an import runs. A single lock guards the whole map; it is
// held only for the duration of a map access, never across a network call.
type Tracker struct {
	mu   sync.Mutex
	jobs map[string]*Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Snapshot)}
}

// Start registers a job in the running state. Restarting an existing id
// resets it.
func (t *Tracker) Start(jobID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[jobID] = &Snapshot{Processed: 0, Total: total, Status: StatusRunning}
}

// SetTotal updates the expected entry count. No-op for unknown ids.
func (t *Tracker) SetTotal(jobID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[jobID]; ok {
		job.Total = total
	}
}

// Update records the number of entries processed so far. No-op for unknown ids.
func (t *Tracker) Update(jobID string, processed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[jobID]; ok {
		job.Processed = processed
	}
}

// Finish moves a job to the completed state. No-op for unknown ids.
func (t *Tracker) Finish(jobID string) {
	t.setStatus(jobID, StatusCompleted)
}

// Error moves a job to the error state. No-op for unknown ids.
func (t *Tracker) Error(jobID string) {
	t.setStatus(jobID, StatusError)
}

func (t *Tracker) setStatus(jobID string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[jobID]; ok {
		job.Status = status
	}
}

// Snapshot returns a copy of the job state, or ok=false for unknown ids.
func (t *Tracker) Snapshot(jobID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Snapshot{}, false
	}
	return *job, true
}

// Pop removes the job and returns its final state, or ok=false for unknown
// ids. Terminal states are popped by the first poller that observes them.
func (t *Tracker) Pop(jobID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Snapshot{}, false
	}
	delete(t.jobs, jobID)
	return *job, true
}
